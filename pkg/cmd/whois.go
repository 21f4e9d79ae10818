package cmd

import (
	"context"
	"fmt"
	"phishdetect/pkg/common"
	"phishdetect/pkg/config"
	"regexp"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"golang.org/x/time/rate"
)

const secondsPerYear = 365 * 24 * 60 * 60

// Registries disagree on the label, and some repeat it (registry + registrar sections).
var creationLineRe = regexp.MustCompile(`(?im)^\s*(?:creation date|created(?: on| date)?|registered(?: on)?|registration (?:date|time)|domain registration date|record created)\s*:\s*(.+?)\s*$`)

// 🌎 Registration metadata, normalised from a raw WHOIS record.
type RegistrationRecord struct {
	Domain        string
	Registrar     string
	CreationDates []time.Time
	HasAddress    bool
}

// CreationDate reduces the creation dates found in the record to the earliest.
func (r *RegistrationRecord) CreationDate() (time.Time, bool) {
	if r == nil {
		return time.Time{}, false
	}
	return common.EarliestDate(r.CreationDates)
}

type registrationFeatures struct {
	HasAddress bool
	DomainAge  int
}

func (f registrationFeatures) fill(v *config.FeatureVector) {
	v[config.SlotHasAddress] = config.Btoi(f.HasAddress)
	v[config.SlotDomainAge] = float64(f.DomainAge)
}

// DomainAgeYears floor-divides the elapsed seconds by a 365-day year.
func DomainAgeYears(created, now time.Time) int {
	return int(int64(now.Sub(created).Seconds()) / secondsPerYear)
}

func (e *Extractor) registrationFeatures(ctx context.Context, host string) Outcome[registrationFeatures] {
	rec, err := e.registrar.Lookup(ctx, host)
	if err != nil {
		return Degraded(registrationFeatures{}, err, MsgDomainAgeUnknown)
	}
	if rec == nil {
		return Degraded(registrationFeatures{}, fmt.Errorf("%w: empty record for %s", common.ErrLookupUnavailable, host), MsgDomainAgeUnknown)
	}

	f := registrationFeatures{HasAddress: rec.HasAddress}
	created, ok := rec.CreationDate()
	if !ok {
		return Degraded(f, fmt.Errorf("%w: no creation date for %s", common.ErrLookupUnavailable, host), MsgDomainAgeUnknown)
	}
	now := e.now()
	if created.After(now) {
		return Degraded(f, fmt.Errorf("%w: creation date %s is in the future", common.ErrLookupUnavailable, created.Format(time.DateOnly)), MsgDomainAgeUnknown)
	}
	f.DomainAge = DomainAgeYears(created, now)
	return Success(f, fmt.Sprintf(MsgDomainCreated, created.Format(time.DateOnly)))
}

// WhoisRegistrar queries WHOIS servers for the apex domain of a host.
type WhoisRegistrar struct {
	client  *whois.Client
	limiter *rate.Limiter
}

// NewWhoisRegistrar builds a registrar. A positive RatePerMinute caps how
// many lookups the process issues; over the cap, lookups fail at once.
func NewWhoisRegistrar(cfg config.WhoisConfig) *WhoisRegistrar {
	client := whois.NewClient()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	r := &WhoisRegistrar{client: client}
	if cfg.RatePerMinute > 0 {
		r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}
	return r
}

// Lookup performs a single best-effort WHOIS query. No retries.
func (r *WhoisRegistrar) Lookup(ctx context.Context, host string) (*RegistrationRecord, error) {
	apexDomain, err := common.ApexDomain(host)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrLookupUnavailable, err)
	}
	if r.limiter != nil && !r.limiter.Allow() {
		return nil, fmt.Errorf("%w: whois rate limit reached", common.ErrLookupUnavailable)
	}

	type whoisResult struct {
		raw string
		err error
	}
	resultChan := make(chan whoisResult, 1)

	go func() {
		raw, err := r.client.Whois(apexDomain)
		resultChan <- whoisResult{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", common.ErrLookupUnavailable, ctx.Err())
	case res := <-resultChan:
		if res.err != nil {
			return nil, fmt.Errorf("%w: whois lookup for '%s' failed: %v", common.ErrLookupUnavailable, apexDomain, res.err)
		}
		return ParseRegistration(apexDomain, res.raw)
	}
}

// ParseRegistration turns a raw WHOIS response into a RegistrationRecord.
func ParseRegistration(domain, raw string) (rec *RegistrationRecord, err error) {
	// whois-parser panics on some malformed records.
	defer func() {
		if p := recover(); p != nil {
			rec = nil
			err = fmt.Errorf("%w: recovered from panic in whoisparser for domain %s: %v", common.ErrLookupUnavailable, domain, p)
		}
	}()

	info, parseErr := whoisparser.Parse(raw)
	if parseErr != nil {
		return nil, fmt.Errorf("%w: whoisparser for '%s' failed: %v", common.ErrLookupUnavailable, domain, parseErr)
	}

	rec = &RegistrationRecord{Domain: domain}
	if info.Registrar != nil {
		rec.Registrar = info.Registrar.Name
	}

	var rawDates []string
	if info.Domain != nil {
		if info.Domain.Domain != "" {
			rec.Domain = info.Domain.Domain
		}
		rawDates = append(rawDates, info.Domain.CreatedDate)
	}
	for _, m := range creationLineRe.FindAllStringSubmatch(raw, -1) {
		rawDates = append(rawDates, m[1])
	}
	for _, d := range rawDates {
		if t, ok := common.ParseWhoisDate(d); ok {
			rec.CreationDates = append(rec.CreationDates, t)
		}
	}

	for _, c := range []*whoisparser.Contact{info.Registrant, info.Administrative, info.Technical} {
		if c != nil && strings.TrimSpace(c.Street) != "" {
			rec.HasAddress = true
			break
		}
	}
	return rec, nil
}
