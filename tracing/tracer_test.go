package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Tsukikage7/cronkit/scheduler"
)

func TestNewTracer_NilConfig(t *testing.T) {
	tp, err := NewTracer(nil, "test-service", "1.0.0")

	assert.Nil(t, tp)
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestNewTracer_Disabled(t *testing.T) {
	tp, err := NewTracer(&Config{Enabled: false}, "test-service", "1.0.0")

	require.NoError(t, err)
	assert.NotNil(t, tp)
	_ = tp.Shutdown(context.Background())
}

func TestNewTracer_EmptyServiceName(t *testing.T) {
	cfg := &Config{Enabled: true, Endpoint: "localhost:4318"}

	tp, err := NewTracer(cfg, "", "1.0.0")

	assert.Nil(t, tp)
	assert.ErrorIs(t, err, ErrEmptyServiceName)
}

func TestNewTracer_EmptyEndpoint(t *testing.T) {
	tp, err := NewTracer(&Config{Enabled: true}, "test-service", "1.0.0")

	assert.Nil(t, tp)
	assert.ErrorIs(t, err, ErrEmptyEndpoint)
}

func TestNewTracer_Endpoints(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"plain", &Config{Enabled: true, Endpoint: "localhost:4318"}},
		{"http prefix", &Config{Enabled: true, Endpoint: "http://localhost:4318"}},
		{"https prefix", &Config{Enabled: true, Endpoint: "https://localhost:4318"}},
		{"headers", &Config{Enabled: true, Endpoint: "localhost:4318", Headers: map[string]string{"Authorization": "Bearer token"}}},
		{"negative sampling", &Config{Enabled: true, Endpoint: "localhost:4318", SamplingRate: -0.5}},
		{"sampling above one", &Config{Enabled: true, Endpoint: "localhost:4318", SamplingRate: 1.5}},
		{"valid sampling", &Config{Enabled: true, Endpoint: "localhost:4318", SamplingRate: 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, err := NewTracer(tt.cfg, "test-service", "1.0.0")

			// 无效采样率会被自动修正为1.0，不会报错
			require.NoError(t, err)
			assert.NotNil(t, tp)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = tp.Shutdown(ctx)
		})
	}
}

func TestMustNewTracer_Panic(t *testing.T) {
	assert.Panics(t, func() {
		MustNewTracer(nil, "test-service", "1.0.0")
	})
	assert.Panics(t, func() {
		MustNewTracer(&Config{Enabled: true}, "test-service", "1.0.0")
	})
}

func TestConfig_Validate(t *testing.T) {
	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), ErrNilConfig)
	assert.ErrorIs(t, (&Config{Enabled: true}).Validate(), ErrEmptyEndpoint)
	assert.NoError(t, (&Config{}).Validate())
}

func TestSchedulerSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	s := scheduler.MustNew(scheduler.WithTracerProvider(tp))
	s.Schedule(func(context.Context) error { return nil }).Named("nightly").MustCron("0 0 0 * * *")

	s.RunAt(context.Background(), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	s.RunAt(context.Background(), time.Date(2024, 5, 1, 0, 0, 1, 0, time.UTC))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "scheduler.task nightly", spans[0].Name())
}
