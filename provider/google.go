package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/ZaguanLabs/hfit"
)

const defaultGoogleURL = "https://translate.googleapis.com/translate_a/single"

// GoogleConfig configures the public web translation endpoint.
type GoogleConfig struct {
	BaseURL string       // Endpoint (default: the public gtx endpoint)
	Client  *http.Client // HTTP client (default: 15s timeout)
	Workers int          // Concurrent requests (default 8)
}

// GoogleProvider sends one request per text. A failed text keeps its
// source; the call fails only when every text failed.
type GoogleProvider struct {
	baseURL string
	client  *http.Client
	workers int
}

// NewGoogleProvider creates a google backend.
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGoogleURL
	}
	if cfg.Client == nil {
		cfg.Client = httpClient(0)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	return &GoogleProvider{baseURL: cfg.BaseURL, client: cfg.Client, workers: cfg.Workers}
}

// Translate implements AIProvider.
func (p *GoogleProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	out := make([]string, len(req.Texts))
	target := hfit.ToHTMLLang(req.TargetLang)

	var failed, sent atomic.Int32
	var lastErr atomic.Value

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, text := range req.Texts {
		if strings.TrimSpace(text) == "" {
			out[i] = text
			continue
		}
		sent.Add(1)
		g.Go(func() error {
			translated, err := p.translateOne(ctx, text, target)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed.Add(1)
				lastErr.Store(err)
				log.Debug().Err(err).Int("index", i).Msg("Google translation failed, keeping source")
				out[i] = text
				return nil
			}
			out[i] = translated
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &hfit.ProviderError{Provider: NameGoogle, Message: "batch cancelled", Cause: err}
	}

	if n := sent.Load(); n > 0 && failed.Load() == n {
		cause, _ := lastErr.Load().(error)
		return nil, &hfit.ProviderError{
			Provider:  NameGoogle,
			Message:   fmt.Sprintf("all %d requests failed", n),
			Cause:     cause,
			Retryable: true,
		}
	}
	return out, nil
}

func (p *GoogleProvider) translateOne(ctx context.Context, text, target string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseGoogleReply(body)
}

// parseGoogleReply joins the sentence translations found at [0][*][0].
func parseGoogleReply(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("reply is not valid JSON")
	}
	sentences := gjson.GetBytes(body, "0")
	if !sentences.IsArray() {
		return "", fmt.Errorf("reply holds no sentences")
	}
	var b strings.Builder
	for _, s := range sentences.Array() {
		b.WriteString(s.Get("0").String())
	}
	return b.String(), nil
}

// Verify GoogleProvider implements AIProvider
var _ AIProvider = (*GoogleProvider)(nil)
