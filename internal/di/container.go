package di

import (
	"context"
	"fmt"

	"deletion-agent/internal/application/port/input"
	"deletion-agent/internal/application/port/output"
	"deletion-agent/internal/domain/entity"
	"deletion-agent/internal/infrastructure/browser/rod"
	"deletion-agent/internal/infrastructure/captcha/anticaptcha"
	"deletion-agent/internal/infrastructure/config"
	"deletion-agent/internal/infrastructure/llm/openrouter"
	"deletion-agent/internal/infrastructure/logger"
	"deletion-agent/internal/infrastructure/mailbox/gmail"
	"deletion-agent/internal/infrastructure/screenshots"
	"deletion-agent/internal/infrastructure/userinteraction"
	"deletion-agent/internal/usecase/confirmation"
	"deletion-agent/internal/usecase/emailrequest"
	"deletion-agent/internal/usecase/mapper"
	"deletion-agent/internal/usecase/orchestrator"
	"deletion-agent/internal/usecase/submission"
)

type Container struct {
	Logger    output.LoggerPort
	Processor input.BrokerProcessor
}

type Config struct {
	OpenRouterAPIKey string
	OpenRouterModel  string
	AntiCaptchaKey   string
	ConfigDir        string
	ScreenshotDir    string
	GmailCredentials string
	GmailToken       string
	BrowserHeadless  bool
}

// NewContainer wires the full dependency graph. The browser is the one
// exception to eager construction: sessions are opened per broker through a
// factory, so a crashed page never poisons the rest of the batch.
func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter("deletion-agent")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	llm := openrouter.NewOpenRouterAdapter(openrouter.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		Model:   cfg.OpenRouterModel,
		BaseURL: "https://openrouter.ai/api/v1",
		Logger:  log,
	})

	mailbox, err := gmail.NewAdapter(ctx, cfg.GmailCredentials, cfg.GmailToken, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create mailbox adapter: %w", err)
	}

	captcha := anticaptcha.NewClient(cfg.AntiCaptchaKey, log)
	configStore := config.NewStore(cfg.ConfigDir, log)
	screenshotStore := screenshots.NewStore(cfg.ScreenshotDir, log)
	console := userinteraction.NewConsoleUserInteraction()

	newBrowser := func(ctx context.Context) (output.BrowserPort, error) {
		browserCfg := rod.DefaultConfig()
		browserCfg.Headless = cfg.BrowserHeadless
		return rod.NewBrowserAdapter(ctx, browserCfg, log)
	}

	processor := orchestrator.New(
		configStore,
		newBrowser,
		mapper.New(llm, log),
		submission.NewClient(log),
		confirmation.NewPoller(mailbox, log),
		emailrequest.NewSender(mailbox, log),
		captcha,
		console,
		screenshotStore,
		entity.NewStateTable(),
		log,
	)

	return &Container{
		Logger:    log,
		Processor: processor,
	}, nil
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}
