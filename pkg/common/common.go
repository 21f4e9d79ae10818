package common

import (
	"crypto/x509"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Keywords the classifier was trained against. Changing this list changes
// the meaning of the keyword slot.
var suspiciousKeywords = []string{"secure", "account", "webscr", "login", "signin"}

// Script hooks that show up in credential harvesting pages.
var scriptHookTokens = []string{"onmouseover", "onload", "eval", "unescape"}

// Markers of right-click suppression.
var rightClickTokens = []string{"event.button==2", "contextmenu"}

var whoisDigitsRe = regexp.MustCompile(`(\d{8})`)

// Issuer organizations treated as well-known, matched by prefix.
var trustedIssuers = []string{
	"Actalis", "Amazon", "Apple", "Buypass", "Certigna", "Certum", "CFCA",
	"Chunghwa Telecom", "Comodo", "Cybertrust", "DigiCert", "Doster", "Entrust",
	"eMudhra", "Firmaprofesional", "GeoTrust", "GlobalSign", "GoDaddy", "IdenTrust",
	"Internet2", "Let's Encrypt", "Microsoft", "NetLock", "Network Solutions",
	"QuoVadis", "Secom", "Sectigo", "SSL.com", "StartCom", "SwissSign", "Symantec",
	"Telia Company", "Thawte", "TrustCor", "Trustwave", "TWCA", "Unizeto", "VeriSign",
	"Verizon", "WISeKey", "Xolphin", "Google Trust Services",
}

const (
	ReliabilityHigh   = "HIGH"
	ReliabilityMedium = "MEDIUM"
	ReliabilityLow    = "LOW"
)

// Help to find suspicious keywords
func HasSuspiciousKeyword(url string) bool {
	return containsAny(strings.ToLower(url), suspiciousKeywords)
}

// HasScriptHooks reports whether lowercased page HTML carries event
// handlers or dynamic evaluation calls.
func HasScriptHooks(htmlLower string) bool {
	return containsAny(htmlLower, scriptHookTokens)
}

// HasRightClickBlock reports whether lowercased page HTML tries to disable
// the context menu.
func HasRightClickBlock(htmlLower string) bool {
	return containsAny(htmlLower, rightClickTokens)
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// HasRedirectSlashes reports a "//" anywhere in the URL, the scheme
// separator included.
func HasRedirectSlashes(rawURL string) bool {
	return strings.Contains(rawURL, "//")
}

// HostLabelCount counts dot separated labels of a host name.
func HostLabelCount(host string) int {
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return 0
	}
	return len(strings.Split(host, "."))
}

// Detect basic homograph tricks (Latin mixed with other scripts, accented look-alikes)
func UsesHomographTrick(domain string) (bool, error) {
	decoded, err := idna.ToUnicode(domain)
	if err != nil {
		return false, fmt.Errorf("punycode decode error: %w", err)
	}

	hasLatin := false
	hasOther := false

	for _, r := range decoded {
		switch {
		case unicode.In(r, unicode.Latin):
			hasLatin = true
		default:
			if unicode.IsLetter(r) {
				hasOther = true
			}
		}
	}

	return hasLatin && hasOther, nil
}

// ApexDomain returns the registrable domain (eTLD+1) used for WHOIS lookups.
func ApexDomain(host string) (string, error) {
	apex, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(strings.TrimSuffix(host, ".")))
	if err != nil {
		return "", fmt.Errorf("could not determine apex domain for '%s': %w", host, err)
	}
	return apex, nil
}

// NormalizeURL ensures a URL has a scheme.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL != "" && !strings.Contains(rawURL, "://") {
		return "https://" + rawURL
	}
	return rawURL
}

// ParseWhoisDate tries multiple common layouts to parse a date string.
func ParseWhoisDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05 MST",
		"2006-01-02",
		"02-Jan-2006",
		"2006/01/02",
		"2006.01.02",
		"02.01.2006",
		"Mon Jan 2 15:04:05 MST 2006",
		"Mon, 02 Jan 2006 15:04:05 MST",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}

	// Some registries print compact dates like 19970915 or "before 19960101".
	if match := whoisDigitsRe.FindStringSubmatch(raw); len(match) > 1 {
		if t, err := time.Parse("20060102", match[1]); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// EarliestDate picks the earliest of the given dates. ok is false for an
// empty slice.
func EarliestDate(dates []time.Time) (earliest time.Time, ok bool) {
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if !ok || d.Before(earliest) {
			earliest = d
			ok = true
		}
	}
	return earliest, ok
}

// IssuerOrganization returns the first O= attribute of the certificate issuer.
func IssuerOrganization(cert *x509.Certificate) string {
	if len(cert.Issuer.Organization) == 0 {
		return ""
	}
	return cert.Issuer.Organization[0]
}

// IsTrustedIssuer reports whether org starts with a well-known CA name.
func IsTrustedIssuer(org string) bool {
	if org == "" {
		return false
	}
	for _, prefix := range trustedIssuers {
		if strings.HasPrefix(org, prefix) {
			return true
		}
	}
	return false
}

// CertReliability scores a certificate one point for a well-known issuer and
// one for a validity window over a year, then maps 2/1/0 to HIGH/MEDIUM/LOW.
func CertReliability(issuerOrg string, notBefore, notAfter time.Time) string {
	score := 0
	if IsTrustedIssuer(issuerOrg) {
		score++
	}
	if notAfter.Sub(notBefore).Hours()/24 > 365 {
		score++
	}
	switch score {
	case 2:
		return ReliabilityHigh
	case 1:
		return ReliabilityMedium
	default:
		return ReliabilityLow
	}
}
