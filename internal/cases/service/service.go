package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	casemetrics "caseflow/internal/cases/metrics"
	"caseflow/internal/cases/models"
	"caseflow/internal/catalog"
	"caseflow/internal/notify"
	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
)

// PartyDirectory is the narrow port the case service needs from the party
// module: existence checks for link targets.
type PartyDirectory interface {
	Exists(ctx context.Context, partyID id.PartyID) (bool, error)
}

type serviceConfig struct {
	logger     *slog.Logger
	metrics    *casemetrics.Metrics
	emitter    notify.Emitter
	parties    PartyDirectory
	catalog    *catalog.Catalog
	tracer     trace.Tracer
	maxRetries int
}

// Option configures the case service.
type Option func(*serviceConfig)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *casemetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithEmitter sets the case event feed.
func WithEmitter(e notify.Emitter) Option {
	return func(c *serviceConfig) { c.emitter = e }
}

// WithPartyDirectory sets the party existence checker used by LinkParty.
func WithPartyDirectory(p PartyDirectory) Option {
	return func(c *serviceConfig) { c.parties = p }
}

// WithCatalog replaces the built-in requirement catalog.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *serviceConfig) { c.catalog = cat }
}

// serviceCatalog narrows the catalog to the one lookup the service performs.
type serviceCatalog struct {
	cat *catalog.Catalog
}

func (c *serviceCatalog) linksFor(entityType workflow.EntityType) ([]models.DocumentLink, error) {
	return c.cat.DocumentLinksFor(entityType)
}

// metricsRecorder makes every metrics call safe when no collector is wired,
// so tests and tools can run the service without touching the default
// Prometheus registry.
type metricsRecorder struct {
	m *casemetrics.Metrics
}

func (r metricsRecorder) caseCreated() {
	if r.m != nil {
		r.m.CasesCreated.Inc()
	}
}

func (r metricsRecorder) transition(action string, start time.Time) {
	if r.m != nil {
		r.m.ObserveTransition(action, start)
	}
}

func (r metricsRecorder) transitionRejected(code string) {
	if r.m != nil {
		r.m.IncrementRejected(code)
	}
}

func (r metricsRecorder) gateFailure() {
	if r.m != nil {
		r.m.GateFailures.Inc()
	}
}

func defaults() *serviceConfig {
	return &serviceConfig{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		emitter:    notify.Discard{},
		catalog:    catalog.Default(),
		tracer:     otel.Tracer("caseflow/cases"),
		maxRetries: 3,
	}
}
