package tracing

import (
	"context"
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	appconfig "github.com/therealutkarshpriyadarshi/creatorhub/internal/config"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init installs a Jaeger tracer as the global tracer. When tracing is
// disabled the global no-op tracer is kept and the closer does nothing.
func Init(cfg appconfig.TracingConfig) (io.Closer, error) {
	if !cfg.Enabled {
		return nopCloser{}, nil
	}

	jc := &jaegercfg.Configuration{
		ServiceName: cfg.ServiceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		},
		Reporter: &jaegercfg.ReporterConfig{
			CollectorEndpoint: cfg.Endpoint,
		},
	}

	tracer, closer, err := jc.NewTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}

// Span is one traced operation. The zero value and nil are safe to use.
type Span struct {
	span opentracing.Span
}

// Start opens a span for operation as a child of any span in ctx
func Start(ctx context.Context, operation string, tags opentracing.Tags) (*Span, context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, operation, tags)
	return &Span{span: span}, ctx
}

// Tag sets key on the span
func (s *Span) Tag(key string, value interface{}) {
	if s == nil || s.span == nil {
		return
	}
	s.span.SetTag(key, value)
}

// End finishes the span, marking it failed when err is non-nil
func (s *Span) End(err error) {
	if s == nil || s.span == nil {
		return
	}
	if err != nil {
		ext.Error.Set(s.span, true)
		s.span.LogKV("event", "error", "message", err.Error())
	}
	s.span.Finish()
}
