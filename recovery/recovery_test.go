package recovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Tsukikage7/cronkit/logger"
)

func TestCall_ReturnsError(t *testing.T) {
	want := errors.New("task failed")
	err := Call(context.Background(), func(context.Context) error { return want })
	assert.Same(t, want, err)

	assert.NoError(t, Call(context.Background(), func(context.Context) error { return nil }))
}

func TestCall_RecoversPanic(t *testing.T) {
	var (
		gotValue any
		gotStack []byte
	)

	err := Call(context.Background(), func(context.Context) error {
		panic("boom")
	}, WithHandler(func(_ context.Context, p any, stack []byte) {
		gotValue = p
		gotStack = stack
	}), WithStackSize(4096))

	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "boom", pe.Value)
	assert.Equal(t, "panic: boom", pe.Error())
	assert.NotEmpty(t, pe.Stack)
	assert.LessOrEqual(t, len(pe.Stack), 4096)
	assert.Nil(t, pe.Unwrap())

	assert.Equal(t, "boom", gotValue)
	assert.NotEmpty(t, gotStack)
}

func TestCall_PanicWithError(t *testing.T) {
	cause := errors.New("nil map write")
	err := Call(context.Background(), func(context.Context) error {
		panic(cause)
	})

	assert.ErrorIs(t, err, cause)
}

func TestCall_LogsPanic(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := logger.NewZap(zap.New(core))
	_ = Call(logger.ContextWithTask(context.Background(), "report"), func(context.Context) error {
		panic("bad")
	}, WithLogger(l))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "[Recovery] panic recovered", entry.Message)
	assert.Equal(t, "report", entry.ContextMap()["task"])
}
