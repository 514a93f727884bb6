package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaguanLabs/hfit"
)

const yandexWidget = `(function(){var config={widgetId:'ytWidget',sid: '0f1e2d3c.65f0a1b2.9c8d7e6f',pageLang:'es'};})();`

type yandexServer struct {
	*httptest.Server
	widgetHits atomic.Int32
	transHits  atomic.Int32
	lastQuery  atomic.Value
	// reply builds the response from the submitted parts.
	reply func(parts []string) any
}

func newYandexServer(t *testing.T, widget string) *yandexServer {
	t.Helper()
	s := &yandexServer{
		reply: func(parts []string) any {
			out := make([]string, len(parts))
			for i, p := range parts {
				out[i] = "[" + p + "]"
			}
			return map[string]any{"code": 200, "lang": "en-zh", "text": []string{strings.Join(out, "<wbr>")}}
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/widget.js", func(w http.ResponseWriter, r *http.Request) {
		s.widgetHits.Add(1)
		_, _ = w.Write([]byte(widget))
	})
	mux.HandleFunc("/translate", func(w http.ResponseWriter, r *http.Request) {
		s.transHits.Add(1)
		q := r.URL.Query()
		s.lastQuery.Store(q)
		_ = json.NewEncoder(w).Encode(s.reply(strings.Split(q.Get("text"), "<wbr>")))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *yandexServer) provider() *YandexProvider {
	return NewYandexProvider(YandexConfig{
		WidgetURL:    s.URL + "/widget.js",
		TranslateURL: s.URL + "/translate",
	})
}

func TestParseYandexSID(t *testing.T) {
	sid, err := parseYandexSID(yandexWidget)
	require.NoError(t, err)
	assert.Equal(t, "0f1e2d3c.65f0a1b2.9c8d7e6f", sid)

	_, err = parseYandexSID("var config = {};")
	assert.Error(t, err)
}

func TestYandexLang(t *testing.T) {
	tests := map[string]string{
		"zh_CN": "zh",
		"zh-TW": "zh",
		"en":    "en",
		"pt-BR": "pt",
	}
	for in, want := range tests {
		assert.Equal(t, want, YandexLang(in), in)
	}
	assert.Equal(t, "en-zh", yandexLangPair("en", "zh-CN"))
	assert.Equal(t, "zh", yandexLangPair("auto", "zh-CN"))
	assert.Equal(t, "fr", yandexLangPair("", "fr"))
}

func TestYandexProvider_Translate(t *testing.T) {
	srv := newYandexServer(t, yandexWidget)
	p := srv.provider()

	got, err := p.Translate(context.Background(), TranslateRequest{
		Texts:      []string{"AT&T <b>", "two", "a<wbr>b"},
		SourceLang: "en",
		TargetLang: "zh_CN",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"[AT&T <b>]", "[two]", "[a<wbr>b]"}, got)
	assert.EqualValues(t, 1, srv.transHits.Load())

	q := srv.lastQuery.Load().(url.Values)
	assert.Equal(t, "tr-url-widget", q.Get("srv"))
	assert.Equal(t, "0f1e2d3c.65f0a1b2.9c8d7e6f-0-0", q.Get("id"))
	assert.Equal(t, "html", q.Get("format"))
	assert.Equal(t, "en-zh", q.Get("lang"))
	assert.Equal(t, "AT&amp;T &lt;b&gt;<wbr>two<wbr>a&lt;wbr&gt;b", q.Get("text"))
}

func TestYandexProvider_WrongPartCount(t *testing.T) {
	srv := newYandexServer(t, yandexWidget)
	srv.reply = func(parts []string) any {
		return map[string]any{"code": 200, "text": []string{"uno"}}
	}
	p := srv.provider()

	got, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"one", "two"}, TargetLang: "es"})
	require.NoError(t, err)
	assert.Equal(t, []string{"uno", "two"}, got)

	srv.reply = func(parts []string) any {
		return map[string]any{"code": 200, "text": []string{"uno<wbr>dos<wbr>tres"}}
	}
	got, err = p.Translate(context.Background(), TranslateRequest{Texts: []string{"one", "two"}, TargetLang: "es"})
	require.NoError(t, err)
	assert.Equal(t, []string{"uno", "dos"}, got)
}

func TestYandexProvider_ErrorReply(t *testing.T) {
	srv := newYandexServer(t, yandexWidget)
	srv.reply = func(parts []string) any {
		return map[string]any{"code": 405, "message": "The specified translation direction is not supported"}
	}
	p := srv.provider()

	_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"hello"}, TargetLang: "xx"})
	var perr *hfit.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, NameYandex, perr.Provider)
	assert.Contains(t, err.Error(), "405")
}

func TestYandexProvider_SessionReusedUntilExpiry(t *testing.T) {
	srv := newYandexServer(t, yandexWidget)
	p := srv.provider()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	req := TranslateRequest{Texts: []string{"a"}, TargetLang: "de"}
	_, err := p.Translate(context.Background(), req)
	require.NoError(t, err)
	_, err = p.Translate(context.Background(), req)
	require.NoError(t, err)
	assert.EqualValues(t, 1, srv.widgetHits.Load())

	now = now.Add(yandexSessionTTL + time.Minute)
	_, err = p.Translate(context.Background(), req)
	require.NoError(t, err)
	assert.EqualValues(t, 2, srv.widgetHits.Load())
}

func TestYandexProvider_RefreshInProgressIsSkipped(t *testing.T) {
	srv := newYandexServer(t, yandexWidget)
	p := srv.provider()

	p.refreshing.Lock()
	p.refresh(context.Background())
	p.refreshing.Unlock()

	assert.EqualValues(t, 0, srv.widgetHits.Load())
	assert.Nil(t, p.current())
}

func TestYandexProvider_NoSID(t *testing.T) {
	srv := newYandexServer(t, "var config = {};")
	p := srv.provider()

	_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"hello"}})
	var perr *hfit.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, NameYandex, perr.Provider)
	assert.True(t, perr.Retryable)
	assert.EqualValues(t, 0, srv.transHits.Load())
}

func TestYandexProvider_EmptyRequest(t *testing.T) {
	srv := newYandexServer(t, yandexWidget)
	got, err := srv.provider().Translate(context.Background(), TranslateRequest{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.EqualValues(t, 0, srv.widgetHits.Load())
}
