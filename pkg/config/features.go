package config

import (
	"strconv"
)

// NumFeatures is the length every extraction produces, whatever failed upstream.
const NumFeatures = 15

// FeatureVector is the fixed layout consumed by the classifier.
// Booleans are encoded as 0/1 so the vector stays homogeneous.
type FeatureVector [NumFeatures]float64

// Slot indexes, in the order the model was trained on.
const (
	SlotAtSymbol = iota
	SlotHasAddress
	SlotURLLength
	SlotDomainAge
	SlotPathLength
	SlotHTTPS
	SlotSubdomain
	SlotRedirect
	SlotHyphen
	SlotKeyword
	SlotDotCount
	SlotFormCount
	SlotIframe
	SlotScriptHooks
	SlotRightClick
)

// FeatureNames labels each slot for CSV/JSON output.
var FeatureNames = [NumFeatures]string{
	// 🌐 URL structure
	"having_at_symbol", "has_address_record", "url_length", "domain_age",
	"path_length", "is_https", "has_subdomain", "redirection_double_slash",
	"prefix_suffix_hyphen", "suspicious_keywords", "dot_count",

	// 📝 Page content
	"forms_count", "has_iframe", "script_hooks", "right_click_disabled",
}

// Btoi encodes a boolean feature.
func Btoi(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Slice returns the vector as a single-row batch.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, NumFeatures)
	copy(out, v[:])
	return out
}

// 🏷️ Result of checking one URL, used by batch output.
type URLReport struct {
	URL        string         `json:"url"`
	Label      string         `json:"label"`
	Features   *FeatureVector `json:"features,omitempty"`
	Messages   []string       `json:"messages"`
	IsPhishing *bool          `json:"is_phishing,omitempty"` // ground truth, when the input carried one
	Error      string         `json:"error,omitempty"`
}

// ReportCSVHeader is the header row for batch CSV output.
var ReportCSVHeader = func() []string {
	h := []string{"url"}
	h = append(h, FeatureNames[:]...)
	return append(h, "label", "is_phishing", "error")
}()

// ToCSVRow flattens the report. Feature cells stay empty when no vector was
// produced (invalid URL or classification error before assembly).
func (r URLReport) ToCSVRow() []string {
	row := make([]string, 0, len(ReportCSVHeader))
	row = append(row, r.URL)
	for i := 0; i < NumFeatures; i++ {
		if r.Features == nil {
			row = append(row, "")
			continue
		}
		row = append(row, strconv.FormatFloat(r.Features[i], 'f', -1, 64))
	}

	truth := ""
	if r.IsPhishing != nil {
		truth = boolCell(*r.IsPhishing)
	}
	return append(row, r.Label, truth, r.Error)
}

// "True"/"False" like the training CSVs.
func boolCell(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
