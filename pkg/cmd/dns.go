package cmd

import (
	"context"
	"fmt"
	"net"
	"phishdetect/pkg/config"

	"github.com/miekg/dns"
)

// DNSResolver asks a single upstream server for A/AAAA records.
type DNSResolver struct {
	client *dns.Client
	server string
}

func NewDNSResolver(cfg config.DNSConfig) *DNSResolver {
	return &DNSResolver{
		client: &dns.Client{Timeout: cfg.Timeout},
		server: cfg.Server,
	}
}

// HasAddressRecord reports whether host resolves to at least one address.
// NXDOMAIN is an answer (false), not an error.
func (r *DNSResolver) HasAddressRecord(ctx context.Context, host string) (bool, error) {
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		m := dns.Msg{}
		m.SetQuestion(dns.Fqdn(host), qtype)
		in, _, err := r.client.ExchangeContext(ctx, &m, r.server)
		if err != nil {
			return false, fmt.Errorf("dns %s query for %s failed: %w", dns.TypeToString[qtype], host, err)
		}
		if in.Rcode == dns.RcodeNameError {
			return false, nil
		}
		if in.Rcode != dns.RcodeSuccess {
			return false, fmt.Errorf("dns %s query for %s: %s", dns.TypeToString[qtype], host, dns.RcodeToString[in.Rcode])
		}
		for _, a := range in.Answer {
			switch a.(type) {
			case *dns.A, *dns.AAAA:
				return true, nil
			}
		}
	}
	return false, nil
}

// Diagnostic only: contributes no slot.
type addressFeatures struct{}

func (addressFeatures) fill(*config.FeatureVector) {}

func (e *Extractor) addressCheck(ctx context.Context, host string) Outcome[addressFeatures] {
	if net.ParseIP(host) != nil {
		return Success(addressFeatures{})
	}
	ok, err := e.resolver.HasAddressRecord(ctx, host)
	if err != nil {
		return Degraded(addressFeatures{}, err, MsgDNSFailed)
	}
	if !ok {
		return Success(addressFeatures{}, MsgNoAddressRecord)
	}
	return Success(addressFeatures{})
}
