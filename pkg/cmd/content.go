package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"phishdetect/pkg/common"
	"phishdetect/pkg/config"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// PageSnapshot is the fetched page, decoded to UTF-8.
type PageSnapshot struct {
	URL        string
	StatusCode int
	HTML       []byte
}

// 📝 Features read from the page HTML.
type contentFeatures struct {
	FormsCount       int
	HasIframe        bool
	HasScriptHooks   bool
	RightClickDenied bool
}

func (f contentFeatures) fill(v *config.FeatureVector) {
	v[config.SlotFormCount] = float64(f.FormsCount)
	v[config.SlotIframe] = config.Btoi(f.HasIframe)
	v[config.SlotScriptHooks] = config.Btoi(f.HasScriptHooks)
	v[config.SlotRightClick] = config.Btoi(f.RightClickDenied)
}

func (e *Extractor) contentFeatures(ctx context.Context, rawURL string) Outcome[contentFeatures] {
	page, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return Degraded(contentFeatures{}, err, MsgHTMLScanFailed)
	}
	if page == nil {
		return Degraded(contentFeatures{}, fmt.Errorf("%w: empty page", common.ErrFetchUnavailable), MsgHTMLScanFailed)
	}

	f, err := inspectHTML(page.HTML)
	if err != nil {
		return Degraded(contentFeatures{}, err, MsgHTMLScanFailed)
	}
	if f.FormsCount > 0 {
		return Success(f, MsgLoginForms)
	}
	return Success(f)
}

// inspectHTML derives the content features from a page body.
func inspectHTML(body []byte) (contentFeatures, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return contentFeatures{}, fmt.Errorf("html parse failed: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)
	lower := strings.ToLower(string(body))

	// iframes written from script strings never reach the DOM
	return contentFeatures{
		FormsCount:       doc.Find("form").Length(),
		HasIframe:        doc.Find("iframe").Length() > 0 || strings.Contains(lower, "<iframe"),
		HasScriptHooks:   common.HasScriptHooks(lower),
		RightClickDenied: common.HasRightClickBlock(lower),
	}, nil
}

// HTTPFetcher performs the single bounded page fetch.
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBody    int64
}

// NewHTTPFetcher creates a fetcher whose every request is bounded by cfg.Timeout.
func NewHTTPFetcher(cfg config.FetchConfig) *HTTPFetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}

	return &HTTPFetcher{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
	}
}

// Fetch GETs rawURL once. Error statuses still return the body.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*PageSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create http request: %v", common.ErrFetchUnavailable, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http get failed: %v", common.ErrFetchUnavailable, err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if f.maxBody > 0 {
		body = io.LimitReader(resp.Body, f.maxBody)
	}
	decoded, err := charset.NewReader(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported charset: %v", common.ErrFetchUnavailable, err)
	}
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", common.ErrFetchUnavailable, err)
	}

	return &PageSnapshot{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       data,
	}, nil
}
