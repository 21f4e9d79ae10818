package cmd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"phishdetect/pkg/common"
	"phishdetect/pkg/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFetchConfig() config.FetchConfig {
	cfg := config.Default().Fetch
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestHTTPFetcherTwoForms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body>
<form action="/login"><input name="email"><input type="password" name="pw"></form>
<form action="/search"><input name="q"></form>
</body></html>`))
	}))
	defer srv.Close()

	e := newTestExtractor(failingRegistrar(), NewHTTPFetcher(testFetchConfig()))
	v, messages, err := e.ExtractFeatures(context.Background(), srv.URL+"/login")
	require.NoError(t, err)

	assert.Equal(t, 2.0, v[config.SlotFormCount])
	assert.Contains(t, messages, MsgLoginForms)
	assert.NotContains(t, messages, MsgHTMLScanFailed)
}

func TestHTTPFetcherErrorStatusStillInspected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<iframe src="x"></iframe>`))
	}))
	defer srv.Close()

	page, err := NewHTTPFetcher(testFetchConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, page.StatusCode)

	f, err := inspectHTML(page.HTML)
	require.NoError(t, err)
	assert.True(t, f.HasIframe)
}

func TestHTTPFetcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testFetchConfig()
	cfg.Timeout = 50 * time.Millisecond
	fetcher := NewHTTPFetcher(cfg)

	_, err := fetcher.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrFetchUnavailable))

	e := newTestExtractor(failingRegistrar(), fetcher)
	v, messages, err := e.ExtractFeatures(context.Background(), srv.URL)
	require.NoError(t, err, "a fetch timeout never escapes the extractor")
	assert.Equal(t, []float64{0, 0, 0, 0}, v.Slice()[config.SlotFormCount:])
	assert.Contains(t, messages, MsgHTMLScanFailed)
}

func TestHTTPFetcherUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(testFetchConfig()).Fetch(context.Background(), url)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrFetchUnavailable))
}

func TestHTTPFetcherDecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer srv.Close()

	page, err := NewHTTPFetcher(testFetchConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(page.HTML), "café")
}

func TestHTTPFetcherBodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>0123456789</p><form></form>"))
	}))
	defer srv.Close()

	cfg := testFetchConfig()
	cfg.MaxBodyBytes = 10
	page, err := NewHTTPFetcher(cfg).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, page.HTML, 10)
}

func TestInspectHTMLScriptWrittenIframe(t *testing.T) {
	f, err := inspectHTML([]byte(`<script>document.write('<iframe src="//evil.example"></iframe>')</script>`))
	require.NoError(t, err)
	assert.True(t, f.HasIframe)
	assert.Equal(t, 0, f.FormsCount)
}
