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
	"golang.org/x/net/html"

	"github.com/ZaguanLabs/hfit"
)

const (
	defaultYandexWidgetURL    = "https://translate.yandex.net/website-widget/v1/widget.js?widgetId=ytWidget&pageLang=es&widgetTheme=light&autoMode=false"
	defaultYandexTranslateURL = "https://translate.yandex.net/api/v1/tr.json/translate"

	// yandexSessionTTL is how long a scraped sid is trusted.
	yandexSessionTTL = 12 * time.Hour

	// yandexSeparator joins the texts of a batch into one html payload.
	yandexSeparator = "<wbr>"
)

var yandexSIDRe = regexp.MustCompile(`sid:\s'([0-9a-f.]{2,})`)

// YandexLang converts a locale code to the widget's form: the primary
// subtag, with every Chinese variant mapped to "zh".
func YandexLang(code string) string {
	code = hfit.ToHTMLLang(code)
	primary, _, _ := strings.Cut(code, "-")
	return strings.ToLower(primary)
}

// YandexConfig configures the website widget backend.
type YandexConfig struct {
	WidgetURL    string       // Script scraped for the sid
	TranslateURL string       // Translation endpoint
	Client       *http.Client // HTTP client (default: 15s timeout)
}

type yandexSession struct {
	sid     string
	fetched time.Time
}

// YandexProvider translates through the website widget endpoint. A batch is
// sent as one html payload; its sid is scraped from the widget script and
// refreshed after yandexSessionTTL.
type YandexProvider struct {
	widgetURL    string
	translateURL string
	client       *http.Client
	now          func() time.Time

	refreshing sync.Mutex
	mu         sync.RWMutex
	session    *yandexSession
}

// NewYandexProvider creates a yandex backend.
func NewYandexProvider(cfg YandexConfig) *YandexProvider {
	if cfg.WidgetURL == "" {
		cfg.WidgetURL = defaultYandexWidgetURL
	}
	if cfg.TranslateURL == "" {
		cfg.TranslateURL = defaultYandexTranslateURL
	}
	if cfg.Client == nil {
		cfg.Client = httpClient(0)
	}
	return &YandexProvider{
		widgetURL:    cfg.WidgetURL,
		translateURL: cfg.TranslateURL,
		client:       cfg.Client,
		now:          time.Now,
	}
}

// Translate implements AIProvider. Texts are html-escaped, joined into one
// payload and unescaped on the way back. A reply with the wrong number of
// parts is padded with source texts or cut.
func (p *YandexProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	p.refresh(ctx)
	session := p.current()
	if session == nil {
		return nil, &hfit.ProviderError{
			Provider:  NameYandex,
			Message:   "sid unavailable",
			Retryable: true,
		}
	}

	escaped := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		escaped[i] = html.EscapeString(text)
	}

	q := url.Values{}
	q.Set("srv", "tr-url-widget")
	q.Set("id", session.sid+"-0-0")
	q.Set("format", "html")
	q.Set("lang", yandexLangPair(req.SourceLang, req.TargetLang))
	q.Set("text", strings.Join(escaped, yandexSeparator))

	body, err := p.get(ctx, p.translateURL+"?"+q.Encode(), "application/json")
	if err != nil {
		return nil, &hfit.ProviderError{Provider: NameYandex, Message: "translate request failed", Cause: err, Retryable: ctx.Err() == nil}
	}

	parts, err := parseYandexReply(body)
	if err != nil {
		return nil, &hfit.ProviderError{Provider: NameYandex, Message: "unreadable reply", Cause: err}
	}

	out := make([]string, len(req.Texts))
	copy(out, req.Texts)
	if len(parts) != len(req.Texts) {
		log.Warn().
			Err(&hfit.CountMismatchError{Expected: len(req.Texts), Got: len(parts)}).
			Msg("Yandex reply split into the wrong number of parts")
	}
	for i := range min(len(parts), len(out)) {
		out[i] = html.UnescapeString(parts[i])
	}
	return out, nil
}

// yandexLangPair builds the "from-to" parameter; an unknown source yields
// the target alone.
func yandexLangPair(from, to string) string {
	to = YandexLang(to)
	if from == "" || from == "auto" {
		return to
	}
	return YandexLang(from) + "-" + to
}

// parseYandexReply returns the payload parts of a reply such as
// {"code":200,"lang":"en-zh","text":["a<wbr>b"]}.
func parseYandexReply(body []byte) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("reply is not valid JSON: %s", strconv.Quote(truncate(string(body), 80)))
	}
	if code := gjson.GetBytes(body, "code"); code.Exists() && code.Int() != http.StatusOK {
		return nil, fmt.Errorf("reply code %d: %s", code.Int(), gjson.GetBytes(body, "message").String())
	}
	text := gjson.GetBytes(body, "text.0")
	if !text.Exists() {
		return nil, fmt.Errorf("reply holds no translation: %s", strconv.Quote(truncate(string(body), 80)))
	}
	return strings.Split(text.String(), yandexSeparator), nil
}

func (p *YandexProvider) current() *yandexSession {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

// refresh scrapes a new sid when none exists or the current one has
// expired. Only one refresh runs at a time.
func (p *YandexProvider) refresh(ctx context.Context) {
	if s := p.current(); s != nil && p.now().Sub(s.fetched) < yandexSessionTTL {
		return
	}
	if !p.refreshing.TryLock() {
		return
	}
	defer p.refreshing.Unlock()

	var session *yandexSession
	body, err := p.get(ctx, p.widgetURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err == nil {
		var sid string
		sid, err = parseYandexSID(string(body))
		if err == nil {
			session = &yandexSession{sid: sid, fetched: p.now()}
		}
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch yandex sid")
	}

	p.mu.Lock()
	p.session = session
	p.mu.Unlock()
}

func parseYandexSID(script string) (string, error) {
	m := yandexSIDRe.FindStringSubmatch(script)
	if m == nil {
		return "", fmt.Errorf("sid not found in widget script")
	}
	return m[1], nil
}

func (p *YandexProvider) get(ctx context.Context, target, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Referer", "https://translate.yandex.com/")
	req.Header.Set("Origin", "https://translate.yandex.com")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

// Verify YandexProvider implements AIProvider
var _ AIProvider = (*YandexProvider)(nil)
