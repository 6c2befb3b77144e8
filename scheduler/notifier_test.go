package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Tsukikage7/cronkit/logger"
)

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := LogNotifier(logger.NewZap(zap.New(core)))

	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n.Notify(context.Background(), Event{Task: "ok", Tick: tick, Status: StatusRan})
	n.Notify(context.Background(), Event{Task: "busy", Tick: tick, Status: StatusSkipped, SkipReason: SkipOverlap})
	n.Notify(context.Background(), Event{Task: "bad", Tick: tick, Status: StatusFailed, Err: errors.New("boom")})

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "ok", entries[0].ContextMap()["task"])
	assert.Equal(t, "ran", entries[0].ContextMap()["status"])

	assert.Equal(t, "overlap", entries[1].ContextMap()["reason"])

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])
}

func TestSchedulerLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := MustNew(WithLogger(logger.NewZap(zap.New(core))))
	s.Schedule(func(context.Context) error { return errors.New("disk full") }).Named("backup").MustCron("* * * * * *")

	s.RunAt(context.Background(), time.Now())

	require.Equal(t, 1, logs.FilterMessageSnippet("任务执行失败: backup").Len())
}
