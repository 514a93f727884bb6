// Package provider contains the translation backends.
package provider

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ZaguanLabs/hfit"
)

// AIProvider is the interface for translation backends.
type AIProvider = hfit.AIProvider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = hfit.TranslateRequest

// Backend names accepted by New.
const (
	NameGoogle = "google"
	NameBing   = "bing"
	NameYandex = "yandex"
	NameOpenAI = "openai"
	NameMock   = "mock"
)

// Names lists the backends New can build.
var Names = []string{NameGoogle, NameBing, NameYandex, NameOpenAI, NameMock}

// Config selects and configures a backend.
type Config struct {
	OpenAI  OpenAIConfig
	Google  GoogleConfig
	Bing    BingConfig
	Yandex  YandexConfig
	Timeout time.Duration // HTTP timeout for the web backends (default 15s)
}

// New returns the backend registered under name.
func New(name string, cfg Config) (AIProvider, error) {
	switch name {
	case NameGoogle:
		gc := cfg.Google
		if gc.Client == nil {
			gc.Client = httpClient(cfg.Timeout)
		}
		return NewGoogleProvider(gc), nil
	case NameBing:
		bc := cfg.Bing
		if bc.Client == nil {
			bc.Client = httpClient(cfg.Timeout)
		}
		return NewBingProvider(bc), nil
	case NameYandex:
		yc := cfg.Yandex
		if yc.Client == nil {
			yc.Client = httpClient(cfg.Timeout)
		}
		return NewYandexProvider(yc), nil
	case NameOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai backend requires an API key")
		}
		return NewOpenAIProvider(cfg.OpenAI), nil
	case NameMock:
		return NewMockProvider(), nil
	}
	return nil, fmt.Errorf("unknown translation service %q", name)
}

func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// truncate cuts s to at most n runes for log and error messages.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
