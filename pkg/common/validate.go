package common

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
}

var (
	hostLabelRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	tldRe       = regexp.MustCompile(`^([a-z]{2,63}|xn--[a-z0-9-]{1,59})$`)
)

// ValidateURL checks that raw is a well-formed absolute URL with a known
// scheme and a usable host. It never touches the network.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	for _, r := range raw {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: contains whitespace or control characters", ErrInvalidURL)
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Opaque != "" || u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("%w: bad port %q", ErrInvalidURL, port)
		}
	} else if strings.HasSuffix(u.Host, ":") {
		return fmt.Errorf("%w: empty port", ErrInvalidURL)
	}

	return validateHost(u.Hostname())
}

func validateHost(host string) error {
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if net.ParseIP(host) != nil {
		return nil
	}

	ascii, err := idna.Lookup.ToASCII(strings.TrimSuffix(host, "."))
	if err != nil {
		return fmt.Errorf("%w: host %q: %v", ErrInvalidURL, host, err)
	}
	ascii = strings.ToLower(ascii)
	if len(ascii) > 253 {
		return fmt.Errorf("%w: host too long", ErrInvalidURL)
	}

	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return fmt.Errorf("%w: host %q has no top-level domain", ErrInvalidURL, host)
	}
	for _, label := range labels {
		if !hostLabelRe.MatchString(label) {
			return fmt.Errorf("%w: bad host label %q", ErrInvalidURL, label)
		}
	}
	if !tldRe.MatchString(labels[len(labels)-1]) {
		return fmt.Errorf("%w: bad top-level domain %q", ErrInvalidURL, labels[len(labels)-1])
	}
	return nil
}
