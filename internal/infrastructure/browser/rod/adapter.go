package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"deletion-agent/internal/application/port/output"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

// BrowserAdapter drives one Chromium page through go-rod. A single adapter
// serves one broker's full analyze -> fill -> submit cycle.
type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	logger   output.LoggerPort

	// settleWait is how long an autocomplete dropdown gets to render after
	// typing before we go looking for options.
	settleWait time.Duration
}

type BrowserConfig struct {
	Headless   bool
	SlowMotion time.Duration
	Timeout    time.Duration
	SettleWait time.Duration
	NoSandbox  bool
	UserAgent  string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:   false,
		SlowMotion: 500 * time.Millisecond,
		Timeout:    10 * time.Second,
		SettleWait: 1000 * time.Millisecond,
		NoSandbox:  true,
		UserAgent:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig, log output.LoggerPort) (*BrowserAdapter, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain").
		Set("disable-setuid-sandbox")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(url).
		SlowMotion(cfg.SlowMotion).
		MustConnect()

	page := browser.MustPage("about:blank")
	if cfg.UserAgent != "" {
		_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent})
	}
	page.MustSetViewport(1366, 768, 1, false)

	return &BrowserAdapter{
		browser:    browser,
		launcher:   l,
		page:       page,
		timeout:    cfg.Timeout,
		settleWait: cfg.SettleWait,
		logger:     log,
	}, nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	page := b.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("page load failed: %w", err)
	}
	page.WaitIdle(5 * time.Second)
	return nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) ([]byte, error) {
	imgBytes, err := b.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > 1024 {
		img = imaging.Resize(img, 1024, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() {
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

// findField walks the selector fallback chain: exact id, exact name, partial
// id, partial name, accessible-label match. First hit wins.
func (b *BrowserAdapter) findField(ctx context.Context, fieldID string) *rod.Element {
	page := b.page.Context(ctx)
	selectors := []string{
		fmt.Sprintf("#%s", cssEscape(fieldID)),
		fmt.Sprintf("[name=%q]", fieldID),
		fmt.Sprintf("[id*=%q]", fieldID),
		fmt.Sprintf("[name*=%q]", fieldID),
		fmt.Sprintf("[aria-label*=%q]", fieldID),
	}
	for _, sel := range selectors {
		has, el, err := page.Has(sel)
		if err == nil && has {
			b.logger.Debug("Located field", "field", fieldID, "selector", sel)
			return el
		}
	}
	return nil
}

// cssEscape makes a raw field ID usable inside an ID selector.
func cssEscape(id string) string {
	out := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '\\', c)
		}
	}
	return string(out)
}
