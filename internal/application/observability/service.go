// Package observability provides observability services for operation dispatch.
// It integrates structured logging, Prometheus metrics, and tracing into the
// dispatch pipeline.
package observability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/logging"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/metrics"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/tracing"
)

// Service provides observability features for dispatch.
// It coordinates logging, metrics collection, and tracing.
type Service struct {
	logger  *logging.Logger
	tracer  *tracing.Tracer
	metrics *metrics.Recorder
}

// ServiceConfig holds configuration for the observability service.
type ServiceConfig struct {
	Logger  *logging.Logger
	Tracer  *tracing.Tracer
	Metrics *metrics.Recorder // optional
}

// NewService creates a new observability service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = tracing.Default()
	}

	return &Service{
		logger:  logger,
		tracer:  tracer,
		metrics: cfg.Metrics,
	}
}

// Logger returns the service logger.
func (s *Service) Logger() *logging.Logger { return s.logger }

// Tracer returns the service tracer.
func (s *Service) Tracer() *tracing.Tracer { return s.tracer }

// Metrics returns the metrics recorder, which may be nil.
func (s *Service) Metrics() *metrics.Recorder { return s.metrics }

// DispatchObserver observes a single dispatch.
type DispatchObserver struct {
	service       *Service
	server        string
	operation     string
	correlationID string
	startTime     time.Time
	span          *tracing.DispatchSpan
}

// StartDispatch begins observing a dispatch. A correlation id is generated
// unless the context already carries one.
func (s *Service) StartDispatch(ctx context.Context, server string, kind mcp.Kind, operation string, argCount int) (context.Context, *DispatchObserver) {
	correlationID := logging.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
		ctx = logging.WithCorrelationID(ctx, correlationID)
	}
	ctx = logging.WithOperation(ctx, operation)

	logging.LogDispatchStart(ctx, s.logger, operation, argCount)

	ctx, span := s.tracer.StartDispatchSpan(ctx, server, operation, correlationID)
	span.SetArgCount(argCount)
	if kind != "" {
		span.SetKind(string(kind))
	}

	return ctx, &DispatchObserver{
		service:       s,
		server:        server,
		operation:     operation,
		correlationID: correlationID,
		startTime:     time.Now(),
		span:          span,
	}
}

// Finish ends the observation with the envelope the dispatch produced.
func (o *DispatchObserver) Finish(ctx context.Context, env mcp.Envelope) {
	duration := time.Since(o.startTime)

	outcome := metrics.OutcomeOK
	if env.IsError() {
		outcome = string(env.Error.Kind)
		logging.LogDispatchFailed(ctx, o.service.logger, o.operation, outcome, env.Error.Message, duration)
		if env.Error.Kind == mcp.KindInternal {
			tracing.RecordError(ctx, errors.New(env.Error.Message))
		}
		o.span.EndWithEnvelopeError(outcome, env.Error.Message)
	} else {
		logging.LogDispatchComplete(ctx, o.service.logger, o.operation, duration)
		o.span.End()
	}

	o.service.metrics.ObserveDispatch(o.server, o.operation, outcome, duration)
}

// CorrelationID returns the correlation id of the observed dispatch.
func (o *DispatchObserver) CorrelationID() string {
	return o.correlationID
}

// ObserveDispatch adapts StartDispatch/Finish to the router's observer hook.
func (s *Service) ObserveDispatch(ctx context.Context, server string, kind mcp.Kind, operation string, argCount int) (context.Context, func(mcp.Envelope)) {
	ctx, obs := s.StartDispatch(ctx, server, kind, operation, argCount)
	return ctx, func(env mcp.Envelope) { obs.Finish(ctx, env) }
}
