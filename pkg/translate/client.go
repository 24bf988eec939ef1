package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"convoscope/pkg/config"
	"convoscope/pkg/logging"
	"convoscope/pkg/request"
)

// Client talks to the DeepL REST API through the shared request queue, so
// per-provider rate limiting and backoff apply.
type Client struct {
	rc         *request.Client
	apiKey     string
	apiHost    string
	targetLang string
}

// NewClient creates a DeepL client.
func NewClient(cfg *config.TranslateConfig, rc *request.Client) (*Client, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("deepl api key is missing")
	}
	host := strings.TrimSuffix(cfg.APIHost, "/")
	if host == "" {
		host = "https://api-free.deepl.com"
	}
	target := cfg.TargetLang
	if target == "" {
		target = "EN-US"
	}
	return &Client{
		rc:         rc,
		apiKey:     cfg.Key,
		apiHost:    host,
		targetLang: target,
	}, nil
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
	Message string `json:"message,omitempty"`
}

// Translate sends one text to DeepL and returns the translation.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", c.targetLang)

	headers := map[string]string{
		"Authorization": "DeepL-Auth-Key " + c.apiKey,
		"Content-Type":  "application/x-www-form-urlencoded",
	}

	logging.Translate().Info("DeepL request", "target", c.targetLang, "chars", len(text))
	body, err := c.rc.PostWithHeaders(ctx, c.apiHost+"/v2/translate", []byte(form.Encode()), headers)
	if err != nil {
		logging.Translate().Error("DeepL request failed", "error", err)
		return "", fmt.Errorf("deepl request failed: %w", err)
	}

	var resp deeplResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse deepl response: %w", err)
	}
	if len(resp.Translations) == 0 {
		if resp.Message != "" {
			logging.Translate().Error("DeepL error", "message", resp.Message)
			return "", fmt.Errorf("deepl error: %s", resp.Message)
		}
		return "", fmt.Errorf("deepl returned no translations")
	}
	logging.Translate().Info("DeepL response", "source", resp.Translations[0].DetectedSourceLanguage, "chars", len(resp.Translations[0].Text))
	return resp.Translations[0].Text, nil
}

// HealthCheck translates a trivial string to verify the key works.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.Translate(ctx, "test"); err != nil {
		return fmt.Errorf("deepl health check failed: %w", err)
	}
	return nil
}
