package cmd

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"phishdetect/pkg/common"
	"phishdetect/pkg/config"
	"time"
)

// CertificateInfo is what the certificate check keeps from a TLS handshake.
type CertificateInfo struct {
	Issuer    string
	NotBefore time.Time
	NotAfter  time.Time
	// Verified is true when the chain validates for the host against the
	// inspector's roots.
	Verified bool
}

// TLSInspector reads the leaf certificate a server presents.
type TLSInspector struct {
	timeout time.Duration
	roots   *x509.CertPool // nil means the system pool
}

func NewTLSInspector(cfg config.TLSConfig) *TLSInspector {
	return &TLSInspector{timeout: cfg.Timeout}
}

// WithRoots replaces the trust anchors used for Verified.
func (i *TLSInspector) WithRoots(pool *x509.CertPool) *TLSInspector {
	i.roots = pool
	return i
}

// Inspect handshakes with host:port without verification and checks the
// chain separately, so untrusted and expired certificates are still read.
func (i *TLSInspector) Inspect(ctx context.Context, host, port string) (*CertificateInfo, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("tls dial %s: %w", host, err)
	}
	defer conn.Close()

	tlsCfg := &tls.Config{InsecureSkipVerify: true}
	if net.ParseIP(host) == nil {
		tlsCfg.ServerName = host
	}
	tlsConn := tls.Client(conn, tlsCfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("tls handshake %s: %w", host, err)
	}

	certs := tlsConn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, errors.New("no peer certificates")
	}
	leaf := certs[0]

	intermediates := x509.NewCertPool()
	for _, c := range certs[1:] {
		intermediates.AddCert(c)
	}
	_, verr := leaf.Verify(x509.VerifyOptions{
		DNSName:       host,
		Roots:         i.roots,
		Intermediates: intermediates,
	})

	return &CertificateInfo{
		Issuer:    common.IssuerOrganization(leaf),
		NotBefore: leaf.NotBefore,
		NotAfter:  leaf.NotAfter,
		Verified:  verr == nil,
	}, nil
}

// Diagnostic only: contributes no slot.
type certificateFeatures struct{}

func (certificateFeatures) fill(*config.FeatureVector) {}

func (e *Extractor) certificateCheck(ctx context.Context, host, port string) Outcome[certificateFeatures] {
	if port == "" {
		port = "443"
	}
	info, err := e.certs.Inspect(ctx, host, port)
	if err != nil {
		return Degraded(certificateFeatures{}, err, MsgCertCheckFailed)
	}

	var messages []string
	now := e.now()
	if now.After(info.NotAfter) || now.Before(info.NotBefore) {
		messages = append(messages, MsgCertExpired)
	}
	if !info.Verified {
		messages = append(messages, MsgCertUntrusted)
	}
	if common.CertReliability(info.Issuer, info.NotBefore, info.NotAfter) == common.ReliabilityLow {
		issuer := info.Issuer
		if issuer == "" {
			issuer = "an unknown issuer"
		}
		messages = append(messages, fmt.Sprintf(MsgCertReliability, issuer))
	}
	return Success(certificateFeatures{}, messages...)
}
