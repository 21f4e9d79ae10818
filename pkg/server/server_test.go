package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"phishdetect/pkg/common"
	"phishdetect/pkg/config"
	"phishdetect/pkg/history"
	"phishdetect/pkg/service"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChecker records verdicts like the real service does.
type stubChecker struct {
	store *history.Store
	label string
	err   error
}

func (c *stubChecker) Check(ctx context.Context, rawURL string) (service.Result, error) {
	if c.err != nil {
		return service.Result{}, c.err
	}
	if !strings.HasPrefix(rawURL, "http") {
		return service.Result{URL: rawURL, Label: "Invalid URL", Messages: []string{"Invalid URL"}}, nil
	}
	c.store.Append(rawURL, c.label, time.Now())
	return service.Result{
		URL:      rawURL,
		Label:    c.label,
		Messages: []string{"No SSL certificate found!", "Website scan complete!"},
		Vector:   &config.FeatureVector{},
		Valid:    true,
	}, nil
}

func newTestServer(t *testing.T, checker *stubChecker) *httptest.Server {
	t.Helper()
	s, err := New(checker, checker.store, log.New(io.Discard))
	require.NoError(t, err)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(t, &stubChecker{store: history.NewStore(0)})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="url"`)
	assert.Contains(t, body, `action="/predict"`)
}

func TestPredictFormShowsVerdictAndHistory(t *testing.T) {
	store := history.NewStore(0)
	ts := newTestServer(t, &stubChecker{store: store, label: "Phishing Website"})

	resp, err := http.PostForm(ts.URL+"/predict", url.Values{"url": {"http://secure-login.example.com/account"}})
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Phishing Website")
	assert.Contains(t, body, "No SSL certificate found!")
	assert.Contains(t, body, "Prediction history")
	assert.Contains(t, body, "http://secure-login.example.com/account")
	assert.Equal(t, 1, store.Len())
}

func TestPredictFormInvalidURL(t *testing.T) {
	store := history.NewStore(0)
	ts := newTestServer(t, &stubChecker{store: store, label: "Legitimate Website"})

	resp, err := http.PostForm(ts.URL+"/predict", url.Values{"url": {"not a url"}})
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Invalid URL")
	assert.NotContains(t, body, "Prediction history")
	assert.Zero(t, store.Len())
}

func TestPredictFormClassificationError(t *testing.T) {
	checker := &stubChecker{
		store: history.NewStore(0),
		err:   fmt.Errorf("%w: model exploded", common.ErrClassification),
	}
	ts := newTestServer(t, checker)

	resp, err := http.PostForm(ts.URL+"/predict", url.Values{"url": {"https://example.com"}})
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Error: classification failed: model exploded")
	assert.Contains(t, body, MsgUnexpected)
}

func TestHistoryPageAndClear(t *testing.T) {
	store := history.NewStore(0)
	store.Append("https://a.example", "Legitimate Website", time.Now())
	ts := newTestServer(t, &stubChecker{store: store})

	resp, err := http.Get(ts.URL + "/history")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "https://a.example")

	resp, err = http.Post(ts.URL+"/history/clear", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "redirect is followed to the history page")
	assert.Contains(t, body, "No predictions yet.")
	assert.Zero(t, store.Len())
}

func TestAPIPredict(t *testing.T) {
	store := history.NewStore(0)
	ts := newTestServer(t, &stubChecker{store: store, label: "Legitimate Website"})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantLabel  string
	}{
		{"valid", `{"url": "https://www.example.com"}`, http.StatusOK, "Legitimate Website"},
		{"invalid url", `{"url": "example"}`, http.StatusUnprocessableEntity, "Invalid URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/predict", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var res service.Result
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
			assert.Equal(t, tt.wantLabel, res.Label)
		})
	}
	assert.Equal(t, 1, store.Len())
}

func TestAPIPredictBadBody(t *testing.T) {
	ts := newTestServer(t, &stubChecker{store: history.NewStore(0)})

	resp, err := http.Post(ts.URL+"/api/predict", "application/json", strings.NewReader("url=x"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIPredictError(t *testing.T) {
	ts := newTestServer(t, &stubChecker{store: history.NewStore(0), err: common.ErrClassification})

	resp, err := http.Post(ts.URL+"/api/predict", "application/json", strings.NewReader(`{"url": "https://example.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var e errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Equal(t, "Error: classification failed", e.Error)
	assert.Equal(t, []string{MsgUnexpected}, e.Messages)
}

func TestAPIHistory(t *testing.T) {
	store := history.NewStore(0)
	ts := newTestServer(t, &stubChecker{store: store})

	resp, err := http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	assert.JSONEq(t, `{"records": []}`, readBody(t, resp))

	store.Append("https://a.example", "Phishing Website", time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC))
	resp, err = http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got historyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Records, 1)
	assert.Equal(t, "Phishing Website", got.Records[0].Label)
}

func TestRoutesRejectWrongMethod(t *testing.T) {
	ts := newTestServer(t, &stubChecker{store: history.NewStore(0)})

	resp, err := http.Get(ts.URL + "/predict")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &stubChecker{store: history.NewStore(0)})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status": "ok"}`, readBody(t, resp))
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s, err := New(&stubChecker{store: history.NewStore(0)}, nil, log.New(io.Discard))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
