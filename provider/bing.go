package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/ZaguanLabs/hfit"
)

const (
	defaultBingPageURL      = "https://www.bing.com/translator"
	defaultBingTranslateURL = "https://www.bing.com/ttranslatev3"

	// bingSessionTTL is how long a scraped session token is trusted.
	bingSessionTTL = 12 * time.Hour
)

var (
	bingParamsRe = regexp.MustCompile(`params_[^=]+=\s*\[[^\]]+\]`)
	bingPartsRe  = regexp.MustCompile(`\d+|"[^"]+"`)
	bingIIDRe    = regexp.MustCompile(`data-iid=["']([^"']+)`)
	bingIGRe     = regexp.MustCompile(`IG["']?\s*:["']?\s*([^"']+)`)
)

// bingLangCodes maps locale codes to the codes the web translator expects.
var bingLangCodes = map[string]string{
	"auto":  "auto-detect",
	"zh-CN": "zh-Hans",
	"zh-SG": "zh-Hans",
	"zh-TW": "zh-Hant",
	"zh-HK": "zh-Hant",
	"tl":    "fil",
	"hmn":   "mww",
	"ckb":   "kmr",
	"mn":    "mn-Cyrl",
	"no":    "nb",
	"sr":    "sr-Cyrl",
}

// BingLang converts a locale code to the web translator's form.
func BingLang(code string) string {
	code = hfit.ToHTMLLang(code)
	if code == "" {
		return "auto-detect"
	}
	if v, ok := bingLangCodes[code]; ok {
		return v
	}
	return code
}

// BingConfig configures the web translator backend.
type BingConfig struct {
	PageURL      string       // Page scraped for the session token
	TranslateURL string       // Translation endpoint
	Client       *http.Client // HTTP client (default: 15s timeout)
}

// bingSession is the scraped state every translation request carries.
type bingSession struct {
	ig, iid    string
	key, token string
	fetched    time.Time
}

func (s *bingSession) ready() bool {
	return s != nil && s.ig != "" && s.iid != "" && s.token != ""
}

// BingProvider translates through the web translator. Its session token is
// scraped from the translator page and refreshed after bingSessionTTL.
type BingProvider struct {
	pageURL      string
	translateURL string
	client       *http.Client
	now          func() time.Time

	refreshing sync.Mutex
	mu         sync.RWMutex
	session    *bingSession
}

// NewBingProvider creates a bing backend.
func NewBingProvider(cfg BingConfig) *BingProvider {
	if cfg.PageURL == "" {
		cfg.PageURL = defaultBingPageURL
	}
	if cfg.TranslateURL == "" {
		cfg.TranslateURL = defaultBingTranslateURL
	}
	if cfg.Client == nil {
		cfg.Client = httpClient(0)
	}
	return &BingProvider{
		pageURL:      cfg.PageURL,
		translateURL: cfg.TranslateURL,
		client:       cfg.Client,
		now:          time.Now,
	}
}

// Translate implements AIProvider. Texts are sent one per request; a text
// whose request fails keeps its source.
func (p *BingProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	p.refresh(ctx)
	session := p.current()
	if !session.ready() {
		return nil, &hfit.ProviderError{
			Provider:  NameBing,
			Message:   "session token unavailable",
			Retryable: true,
		}
	}

	from := BingLang(req.SourceLang)
	to := BingLang(req.TargetLang)

	out := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		if strings.TrimSpace(text) == "" {
			out[i] = text
			continue
		}
		translated, err := p.translateOne(ctx, session, text, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &hfit.ProviderError{Provider: NameBing, Message: "batch cancelled", Cause: ctx.Err()}
			}
			log.Debug().Err(err).Int("index", i).Msg("Bing translation failed, keeping source")
			out[i] = text
			continue
		}
		out[i] = translated
	}
	return out, nil
}

func (p *BingProvider) current() *bingSession {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

// refresh scrapes a new session when none exists or the current one is
// older than bingSessionTTL. Only one refresh runs at a time; callers that
// find one in progress keep the existing session.
func (p *BingProvider) refresh(ctx context.Context) {
	if s := p.current(); s.ready() && p.now().Sub(s.fetched) < bingSessionTTL {
		return
	}
	if !p.refreshing.TryLock() {
		return
	}
	defer p.refreshing.Unlock()

	session, err := p.scrape(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch bing session token")
		session = nil
	} else {
		session.fetched = p.now()
	}

	p.mu.Lock()
	p.session = session
	p.mu.Unlock()
}

func (p *BingProvider) scrape(ctx context.Context) (*bingSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translator page returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parseBingSession(string(body))
}

// parseBingSession extracts the IG, IID, key and token values from the
// translator page.
func parseBingSession(page string) (*bingSession, error) {
	params := bingParamsRe.FindString(page)
	iid := bingIIDRe.FindStringSubmatch(page)
	ig := bingIGRe.FindStringSubmatch(page)
	if params == "" || iid == nil || ig == nil {
		return nil, fmt.Errorf("session parameters not found in translator page")
	}

	parts := bingPartsRe.FindAllString(params, -1)
	if len(parts) < 2 {
		return nil, fmt.Errorf("session parameters incomplete")
	}
	return &bingSession{
		ig:    ig[1],
		iid:   iid[1],
		key:   strings.Trim(parts[0], `"'`),
		token: strings.Trim(parts[1], `"'`),
	}, nil
}

func (p *BingProvider) translateOne(ctx context.Context, s *bingSession, text, from, to string) (string, error) {
	q := url.Values{}
	q.Set("isVertical", "1")
	q.Set("IG", s.ig)
	q.Set("IID", s.iid)

	form := url.Values{}
	form.Set("fromLang", from)
	form.Set("to", to)
	form.Set("text", text)
	form.Set("token", s.token)
	form.Set("key", s.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.translateURL+"?"+q.Encode(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", p.pageURL)

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

	result := gjson.GetBytes(body, "0.translations.0.text")
	if !result.Exists() {
		return "", fmt.Errorf("reply holds no translation: %s", strconv.Quote(truncate(string(body), 80)))
	}
	return result.String(), nil
}

// Verify BingProvider implements AIProvider
var _ AIProvider = (*BingProvider)(nil)
