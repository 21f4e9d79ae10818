// Package service runs one URL through validation, feature extraction and
// classification, and records the verdict.
package service

import (
	"context"
	"errors"
	"fmt"
	"phishdetect/pkg/cmd"
	"phishdetect/pkg/common"
	"phishdetect/pkg/config"
	"phishdetect/pkg/history"
	"phishdetect/pkg/model"
	"time"

	"github.com/charmbracelet/log"
)

// FeatureExtractor is satisfied by *cmd.Extractor.
type FeatureExtractor interface {
	ExtractFeatures(ctx context.Context, rawURL string) (*config.FeatureVector, []string, error)
}

// Result is what the presentation layer renders for one check.
type Result struct {
	URL      string                `json:"url"`
	Label    string                `json:"label"`
	Messages []string              `json:"messages"`
	Vector   *config.FeatureVector `json:"features,omitempty"`
	Valid    bool                  `json:"valid"`
}

// Report converts the result for batch output.
func (r Result) Report() config.URLReport {
	return config.URLReport{URL: r.URL, Label: r.Label, Features: r.Vector, Messages: r.Messages}
}

type Service struct {
	extractor  FeatureExtractor
	classifier model.Classifier
	history    *history.Store
	logger     *log.Logger
	now        func() time.Time
}

// New builds a Service. history may be nil when verdicts need not be kept.
func New(extractor FeatureExtractor, classifier model.Classifier, store *history.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		extractor:  extractor,
		classifier: classifier,
		history:    store,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) History() *history.Store { return s.history }

// Check classifies rawURL. An invalid URL is not an error: the result
// carries the invalid label and nothing is classified or recorded. Only
// classification failures are returned, wrapping common.ErrClassification.
func (s *Service) Check(ctx context.Context, rawURL string) (Result, error) {
	vector, messages, err := s.extractor.ExtractFeatures(ctx, rawURL)
	if errors.Is(err, common.ErrInvalidURL) {
		s.logger.Info("rejected invalid url", "url", rawURL, "err", err)
		return Result{URL: rawURL, Label: cmd.MsgInvalidURL, Messages: messages}, nil
	}
	if err != nil {
		return Result{URL: rawURL}, fmt.Errorf("failed to extract features for %s: %w", rawURL, err)
	}
	if vector == nil {
		return Result{URL: rawURL}, fmt.Errorf("%w: no feature vector for %s", common.ErrClassification, rawURL)
	}

	class, err := s.classifier.Predict(*vector)
	if err != nil {
		if !errors.Is(err, common.ErrClassification) {
			err = fmt.Errorf("%w: %w", common.ErrClassification, err)
		}
		return Result{URL: rawURL, Vector: vector, Messages: messages}, err
	}

	label := model.Label(class)
	if s.history != nil {
		s.history.Append(rawURL, label, s.now())
	}
	s.logger.Info("classified url", "url", rawURL, "label", label)

	return Result{
		URL:      rawURL,
		Label:    label,
		Messages: messages,
		Vector:   vector,
		Valid:    true,
	}, nil
}
