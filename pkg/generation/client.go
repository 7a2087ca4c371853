// Package generation calls the external image-generation endpoint.
package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const imageMIMEPrefix = "image/"

// maxErrorBody caps how much of a failed response body is kept in the error.
const maxErrorBody = 512

// Config configures the generation client.
type Config struct {
	Endpoint    string
	Model       string
	APIKey      string
	AspectRatio string
	Timeout     time.Duration
}

// Client issues one generateContent call per Generate.
type Client struct {
	cfg    Config
	client *http.Client
}

// New creates a Client. The HTTP client timeout bounds each call so that a
// stalled endpoint fails as a transport error rather than hanging.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Ready returns ErrMisconfigured if the API credential is empty or a placeholder.
func (c *Client) Ready() error {
	if isPlaceholder(c.cfg.APIKey) {
		return ErrMisconfigured
	}
	return nil
}

func isPlaceholder(key string) bool {
	k := strings.TrimSpace(key)
	if k == "" || strings.HasPrefix(k, "${") || strings.HasPrefix(k, "<") {
		return true
	}
	switch strings.ToLower(k) {
	case "changeme", "change-me", "todo", "xxx", "your_api_key", "your-api-key", "your_api_key_here", "api_key":
		return true
	}
	return false
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
}

// Generate builds the cover prompt for subject and makes a single call.
// It never retries.
func (c *Client) Generate(ctx context.Context, subject string) Result {
	body := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: BuildPrompt(subject)}},
		}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}
	if c.cfg.AspectRatio != "" {
		body.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: c.cfg.AspectRatio}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return transportFailure(0, fmt.Errorf("encode request: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return transportFailure(0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return transportFailure(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return transportFailure(resp.StatusCode, fmt.Errorf("body=%s", strings.TrimSpace(string(errBody))))
	}

	return decode(resp.Body)
}

// decode turns a 2xx body into a Result. A body that is not the expected
// candidate/part structure is an empty result.
func decode(r io.Reader) Result {
	var gResp generateResponse
	if err := json.NewDecoder(r).Decode(&gResp); err != nil {
		return empty(fmt.Errorf("decode response: %w", err))
	}
	if len(gResp.Candidates) == 0 {
		return empty(errors.New("no candidates"))
	}

	for _, cand := range gResp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || !strings.HasPrefix(p.InlineData.MimeType, imageMIMEPrefix) {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return empty(fmt.Errorf("decode inline data: %w", err))
			}
			if len(data) == 0 {
				continue
			}
			return success(data, p.InlineData.MimeType)
		}
	}
	return empty(ErrEmptyResult)
}
