package cmd

import (
	neturl "net/url"
	"phishdetect/pkg/common"
	"phishdetect/pkg/config"
	"strings"
	"unicode/utf8"
)

// 🌐 Features read straight off the URL string.
type lexicalFeatures struct {
	HasAtSymbol       bool
	URLLength         int
	PathLength        int
	IsHTTPS           bool
	HasSubdomain      bool
	HasRedirect       bool
	HostHasHyphen     bool
	HasSensitiveWords bool
	DotCount          int
}

func (f lexicalFeatures) fill(v *config.FeatureVector) {
	v[config.SlotAtSymbol] = config.Btoi(f.HasAtSymbol)
	v[config.SlotURLLength] = float64(f.URLLength)
	v[config.SlotPathLength] = float64(f.PathLength)
	v[config.SlotHTTPS] = config.Btoi(f.IsHTTPS)
	v[config.SlotSubdomain] = config.Btoi(f.HasSubdomain)
	v[config.SlotRedirect] = config.Btoi(f.HasRedirect)
	v[config.SlotHyphen] = config.Btoi(f.HostHasHyphen)
	v[config.SlotKeyword] = config.Btoi(f.HasSensitiveWords)
	v[config.SlotDotCount] = float64(f.DotCount)
}

// Analyze URL for Info(Has@, length, https, ...). Never fails: the URL has
// already been validated.
func analyzeURL(rawURL string, u *neturl.URL) Outcome[lexicalFeatures] {
	host := u.Hostname()
	// RawPath keeps the path as typed; EscapedPath would percent-encode IRI characters.
	path := u.RawPath
	if path == "" {
		path = u.EscapedPath()
	}
	f := lexicalFeatures{
		HasAtSymbol:       strings.Contains(rawURL, "@"),
		URLLength:         utf8.RuneCountInString(rawURL),
		PathLength:        utf8.RuneCountInString(path),
		IsHTTPS:           strings.EqualFold(u.Scheme, "https"),
		HasSubdomain:      common.HostLabelCount(host) > 2,
		HasRedirect:       common.HasRedirectSlashes(rawURL),
		HostHasHyphen:     strings.Contains(host, "-"),
		HasSensitiveWords: common.HasSuspiciousKeyword(rawURL),
		DotCount:          strings.Count(rawURL, "."),
	}

	var messages []string
	if f.HasAtSymbol {
		messages = append(messages, MsgAtSymbol)
	}
	if !f.IsHTTPS {
		messages = append(messages, MsgNoSSL)
	}
	if lookalike, err := common.UsesHomographTrick(host); err == nil && lookalike {
		messages = append(messages, MsgLookalikeHost)
	}
	return Success(f, messages...)
}
