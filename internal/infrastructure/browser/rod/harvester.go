package rod

import (
	"context"
	"encoding/json"
	"fmt"

	"deletion-agent/internal/domain/entity"
)

// authScanJS scans the page for credentials in a fixed priority order: hidden
// inputs, meta tags, local/session storage, inline script text, well-known
// globals, cookies, conventional CSRF locations, then serializes the current
// form's values. A JWT-shaped value is three dot-separated base64url segments
// starting with the standard header prefix.
const authScanJS = `() => {
	const auth = { jwtToken: '', jwtTokenSource: '', csrfToken: '', cookies: '', captured: {} };
	const isJWT = v => typeof v === 'string' && v.startsWith('eyJ') && v.split('.').length === 3;
	const found = (token, source) => {
		if (!auth.jwtToken) { auth.jwtToken = token; auth.jwtTokenSource = source; }
	};

	document.querySelectorAll('input[type="hidden"]').forEach(input => {
		if (input.name && input.value) {
			auth.captured[input.name] = input.value;
			if (isJWT(input.value)) found(input.value, 'input.' + input.name);
		}
	});

	document.querySelectorAll('meta').forEach(meta => {
		const name = meta.getAttribute('name') || meta.getAttribute('property');
		const content = meta.getAttribute('content');
		if (name && content) {
			auth.captured['meta_' + name] = content;
			if (isJWT(content)) found(content, 'meta.' + name);
		}
	});

	try {
		for (let i = 0; i < localStorage.length; i++) {
			const key = localStorage.key(i);
			const value = localStorage.getItem(key);
			if (isJWT(value)) found(value, 'localStorage.' + key);
		}
	} catch (e) {}

	try {
		for (let i = 0; i < sessionStorage.length; i++) {
			const key = sessionStorage.key(i);
			const value = sessionStorage.getItem(key);
			if (isJWT(value)) found(value, 'sessionStorage.' + key);
		}
	} catch (e) {}

	document.querySelectorAll('script').forEach(script => {
		const content = script.textContent || '';
		const matches = content.match(/eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+/);
		if (matches) found(matches[0], 'script_content');
	});

	try {
		for (const name of ['jwtToken', 'token', 'authToken']) {
			if (isJWT(window[name])) found(window[name], 'window.' + name);
		}
	} catch (e) {}

	auth.cookies = document.cookie;

	const csrf = document.querySelector('input[name="csrf"], input[name="_csrf"], meta[name="csrf-token"]');
	if (csrf) {
		auth.csrfToken = csrf.value || csrf.getAttribute('content') || '';
	}

	const form = document.querySelector('form');
	if (form) {
		for (const [key, value] of new FormData(form).entries()) {
			if (typeof value === 'string') auth.captured['form_' + key] = value;
		}
	}

	return auth;
}`

// HarvestAuth runs the credential scan on the loaded page. Finding nothing is
// not an error; downstream headers are simply not sent.
func (b *BrowserAdapter) HarvestAuth(ctx context.Context) (*entity.AuthBundle, error) {
	res, err := b.page.Context(ctx).Eval(authScanJS)
	if err != nil {
		return nil, fmt.Errorf("auth token scan failed: %w", err)
	}

	var raw struct {
		JWTToken       string            `json:"jwtToken"`
		JWTTokenSource string            `json:"jwtTokenSource"`
		CSRFToken      string            `json:"csrfToken"`
		Cookies        string            `json:"cookies"`
		Captured       map[string]string `json:"captured"`
	}
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &raw); err != nil {
		return nil, fmt.Errorf("auth token scan returned unexpected shape: %w", err)
	}

	bundle := &entity.AuthBundle{
		JWTToken:  raw.JWTToken,
		JWTSource: raw.JWTTokenSource,
		CSRFToken: raw.CSRFToken,
		Cookies:   raw.Cookies,
		Captured:  raw.Captured,
	}
	if bundle.HasJWT() {
		b.logger.Info("JWT token harvested", "source", bundle.JWTSource)
	} else {
		b.logger.Debug("No JWT token found on page")
	}
	return bundle, nil
}
