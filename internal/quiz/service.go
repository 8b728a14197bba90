// Package quiz ties the catalog, the scoring pipeline and the result store into
// the operations served over HTTP, the CLI and MCP.
package quiz

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/ZanzyTHEbar/elkquiz/internal/analysis"
	"github.com/ZanzyTHEbar/elkquiz/internal/catalog"
	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
	"github.com/ZanzyTHEbar/elkquiz/internal/monitoring"
	"github.com/ZanzyTHEbar/elkquiz/internal/store"
)

// Service is safe for concurrent use.
type Service struct {
	catalog  *catalog.Catalog
	store    *store.Store
	analyzer *analysis.Analyzer
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	tracer   *monitoring.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithAnalyzer replaces the default analyzer.
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

// WithMetrics records submissions and reloads into m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the event logger.
func WithLogger(l *monitoring.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTracer wraps submissions in spans.
func WithTracer(t *monitoring.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// NewService builds a Service over cat and st.
func NewService(cat *catalog.Catalog, st *store.Store, opts ...Option) *Service {
	s := &Service{
		catalog: cat,
		store:   st,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.analyzer == nil {
		s.analyzer = analysis.NewAnalyzer()
	}
	if s.logger == nil {
		s.logger = monitoring.NewLoggerTo(os.Stderr, slog.LevelWarn)
	}
	return s
}

// Catalog returns the underlying catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Snapshot returns the current catalog snapshot.
func (s *Service) Snapshot() *catalog.Snapshot { return s.catalog.Snapshot() }

// Suite resolves id against the current snapshot; "" is the default suite.
func (s *Service) Suite(id string) (*catalog.Suite, error) {
	return s.catalog.Suite(id)
}

// StoredResults is the number of live results.
func (s *Service) StoredResults() int { return s.store.Len() }

// Submit scores a raw answers array against suiteID and stores the result.
func (s *Service) Submit(ctx context.Context, suiteID string, answers json.RawMessage) (*Acknowledgment, error) {
	suite, err := s.Suite(suiteID)
	if err != nil {
		return nil, err
	}
	parsed, err := analysis.ParseAnswers(answers)
	if err != nil {
		s.reject(suite.ID, err)
		return nil, err
	}
	return s.submit(ctx, suite, parsed)
}

// SubmitAnswers scores already decoded answers.
func (s *Service) SubmitAnswers(ctx context.Context, suiteID string, answers []analysis.Answer) (*Acknowledgment, error) {
	suite, err := s.Suite(suiteID)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, suite, answers)
}

func (s *Service) submit(ctx context.Context, suite *catalog.Suite, answers []analysis.Answer) (*Acknowledgment, error) {
	start := time.Now()
	var record *analysis.ResultRecord

	err := s.tracer.Trace(ctx, "quiz.submit", func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return apperrors.ToAppError(err)
		}
		if span := monitoring.SpanFromContext(ctx); span != nil {
			span.SetTag("suite", suite.ID)
			span.SetTag("answers", strconv.Itoa(len(answers)))
		}

		var err error
		record, err = s.analyzer.Score(suite, answers)
		return err
	})
	if err != nil {
		if apperrors.IsCategory(err, apperrors.CategoryValidation) {
			s.reject(suite.ID, err)
		}
		return nil, err
	}

	s.store.Put(record)
	if s.metrics != nil {
		s.metrics.RecordSubmission(suite.ID, record.TotalScore)
	}
	s.logger.SubmissionLogger(suite.ID, record.ID, record.TotalScore, len(record.Dimensions), time.Since(start))

	return NewAcknowledgment(record), nil
}

func (s *Service) reject(suiteID string, err error) {
	if s.metrics != nil {
		s.metrics.RecordRejectedSubmission(suiteID)
	}
	s.logger.RejectionLogger(suiteID, err)
}

// Result returns a stored result scoped to suiteID. The suite must exist in
// the current snapshot, and the result must have been scored against it.
func (s *Service) Result(_ context.Context, suiteID, resultID string) (*analysis.ResultRecord, error) {
	suite, err := s.Suite(suiteID)
	if err != nil {
		return nil, err
	}
	return s.store.Get(suite.ID, resultID)
}

// LegacyResult returns a stored result by id regardless of suite.
func (s *Service) LegacyResult(_ context.Context, resultID string) (*analysis.ResultRecord, error) {
	return s.store.GetAny(resultID)
}

// Reload rebuilds the catalog. trigger names the caller for logs.
func (s *Service) Reload(trigger string) (*catalog.Snapshot, error) {
	snap, err := s.catalog.Reload()
	if s.metrics != nil {
		s.metrics.RecordCatalogReload(err)
	}
	if err != nil {
		s.logger.CatalogLogger(trigger, 0, "", 0, err)
		return nil, err
	}
	s.logger.CatalogLogger(trigger, len(snap.Suites), snap.Default.ID, snap.Version, nil)
	return snap, nil
}
