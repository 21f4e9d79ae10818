package cmd

import (
	"context"
	neturl "net/url"
	"phishdetect/pkg/common"
	"phishdetect/pkg/config"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Diagnostic messages shown to the user, in the order stages emit them.
const (
	MsgInvalidURL       = "Invalid URL"
	MsgAtSymbol         = "URL contains '@' symbol."
	MsgNoSSL            = "No SSL certificate found!"
	MsgLookalikeHost    = "Domain uses look-alike characters."
	MsgDomainCreated    = "Domain created on: %s"
	MsgDomainAgeUnknown = "Could not determine domain creation date."
	MsgNoAddressRecord  = "Domain does not resolve to an address."
	MsgDNSFailed        = "Could not check domain address records."
	MsgCertExpired      = "SSL certificate has expired!"
	MsgCertUntrusted    = "SSL certificate is not trusted for this domain."
	MsgCertReliability  = "SSL certificate from %s has low reliability."
	MsgCertCheckFailed  = "Could not check SSL certificate."
	MsgLoginForms       = "Website has login forms - potential phishing site!"
	MsgHTMLScanFailed   = "Could not scan website HTML content."
	MsgScanComplete     = "Website scan complete!"
)

// Registrar looks up registration metadata for a host.
type Registrar interface {
	Lookup(ctx context.Context, host string) (*RegistrationRecord, error)
}

// PageFetcher retrieves the raw page behind a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*PageSnapshot, error)
}

// Resolver reports whether a host has DNS address records.
type Resolver interface {
	HasAddressRecord(ctx context.Context, host string) (bool, error)
}

// CertInspector reads the certificate served at host:port.
type CertInspector interface {
	Inspect(ctx context.Context, host, port string) (*CertificateInfo, error)
}

// Extractor holds the collaborators used to turn a URL into a feature vector.
// It keeps no per-request state and is safe for concurrent use.
type Extractor struct {
	registrar Registrar
	fetcher   PageFetcher
	resolver  Resolver      // nil skips the DNS check
	certs     CertInspector // nil skips the certificate check
	logger    *log.Logger
	now       func() time.Time
}

// Option customises an Extractor.
type Option func(*Extractor)

func WithRegistrar(r Registrar) Option { return func(e *Extractor) { e.registrar = r } }

func WithFetcher(f PageFetcher) Option { return func(e *Extractor) { e.fetcher = f } }

// WithResolver replaces the DNS resolver; nil disables the check.
func WithResolver(r Resolver) Option { return func(e *Extractor) { e.resolver = r } }

// WithCertInspector replaces the certificate inspector; nil disables the check.
func WithCertInspector(c CertInspector) Option { return func(e *Extractor) { e.certs = c } }

func WithClock(now func() time.Time) Option { return func(e *Extractor) { e.now = now } }

func WithLogger(l *log.Logger) Option { return func(e *Extractor) { e.logger = l } }

// NewExtractor wires the WHOIS, HTTP, DNS and TLS implementations described by cfg.
func NewExtractor(cfg config.AppConfig, opts ...Option) *Extractor {
	e := &Extractor{
		registrar: NewWhoisRegistrar(cfg.Whois),
		fetcher:   NewHTTPFetcher(cfg.Fetch),
		logger:    log.Default(),
		now:       time.Now,
	}
	if cfg.DNS.Enabled {
		e.resolver = NewDNSResolver(cfg.DNS)
	}
	if cfg.TLS.Enabled {
		e.certs = NewTLSInspector(cfg.TLS)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// vectorPart is implemented by every stage's feature set.
type vectorPart interface {
	fill(v *config.FeatureVector)
}

type assembly struct {
	vector   config.FeatureVector
	messages []string
}

func merge[T vectorPart](a *assembly, o Outcome[T]) {
	o.Value.fill(&a.vector)
	a.messages = append(a.messages, o.Messages...)
}

// ExtractFeatures validates rawURL and builds its feature vector. Invalid
// URLs return a nil vector, the single invalid-URL message and an error
// wrapping common.ErrInvalidURL. Every other failure is absorbed: the
// affected slots keep their zero default and a message explains why.
func (e *Extractor) ExtractFeatures(ctx context.Context, rawURL string) (*config.FeatureVector, []string, error) {
	if err := common.ValidateURL(rawURL); err != nil {
		return nil, []string{MsgInvalidURL}, err
	}
	u, err := neturl.Parse(rawURL)
	if err != nil {
		// unreachable once validated
		return nil, []string{MsgInvalidURL}, err
	}
	host := u.Hostname()

	a := &assembly{}

	merge(a, analyzeURL(rawURL, u))

	reg := e.registrationFeatures(ctx, host)
	if reg.Degraded {
		e.logger.Debug("registration lookup degraded", "stage", "whois", "host", host, "err", reg.Err)
	}
	merge(a, reg)

	if e.resolver != nil {
		dnsOut := e.addressCheck(ctx, host)
		if dnsOut.Degraded {
			e.logger.Debug("address check degraded", "stage", "dns", "host", host, "err", dnsOut.Err)
		}
		merge(a, dnsOut)
	}

	if e.certs != nil && strings.EqualFold(u.Scheme, "https") {
		certOut := e.certificateCheck(ctx, host, u.Port())
		if certOut.Degraded {
			e.logger.Debug("certificate check degraded", "stage", "tls", "host", host, "err", certOut.Err)
		}
		merge(a, certOut)
	}

	content := e.contentFeatures(ctx, rawURL)
	if content.Degraded {
		e.logger.Debug("html scan degraded", "stage", "content", "url", rawURL, "err", content.Err)
	}
	merge(a, content)

	a.messages = append(a.messages, MsgScanComplete)

	vector := a.vector
	return &vector, a.messages, nil
}
