package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// LoggerTestSuite logger 测试套件.
type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (s *LoggerTestSuite) TestNewLogger_NilConfig() {
	log, err := NewLogger(nil)
	s.Error(err)
	s.Nil(log)
}

func (s *LoggerTestSuite) TestNewLogger_DefaultConfig() {
	log, err := NewLogger(DefaultConfig())
	s.NoError(err)
	s.NotNil(log)
}

func (s *LoggerTestSuite) TestNewLogger_DevConfig() {
	log, err := NewLogger(NewDevConfig())
	s.NoError(err)
	s.NotNil(log)
}

func (s *LoggerTestSuite) TestNewLogger_Invalid() {
	configs := map[string]*Config{
		"level":  {Level: "invalid"},
		"format": {Format: "xml"},
		"output": {Output: "file"},
		"type":   {Type: "logrus"},
	}
	for name, cfg := range configs {
		log, err := NewLogger(cfg)
		s.Error(err, name)
		s.Nil(log, name)

		var ce *ConfigError
		s.True(errors.As(err, &ce), name)
	}
}

func (s *LoggerTestSuite) TestMustNewLogger_Panics() {
	s.Panics(func() {
		MustNewLogger(&Config{Level: "invalid"})
	})
}

func (s *LoggerTestSuite) TestApplyDefaults() {
	cfg := &Config{}
	cfg.ApplyDefaults()

	s.Equal(TypeZap, cfg.Type)
	s.Equal(LevelInfo, cfg.Level)
	s.Equal(FormatJSON, cfg.Format)
	s.Equal(OutputStdout, cfg.Output)
	s.Equal("cronkit", cfg.ServiceName)
	s.Equal(TimeFormatDateTime, cfg.TimeFormat)
}

func (s *LoggerTestSuite) TestParseLevel() {
	s.Equal(zapcore.DebugLevel, parseLevel("DEBUG"))
	s.Equal(zapcore.WarnLevel, parseLevel("warning"))
	s.Equal(zapcore.ErrorLevel, parseLevel("error"))
	s.Equal(zapcore.InfoLevel, parseLevel(""))
}

func (s *LoggerTestSuite) TestWithFields() {
	core, logs := observer.New(zapcore.DebugLevel)
	log := newFromZap(zap.New(core))

	log.With(
		String("task", "sync"),
		Int("attempt", 2),
		Duration("elapsed", time.Second),
		Err(errors.New("boom")),
	).Errorf("[Scheduler] failed: %s", "sync")

	s.Require().Equal(1, logs.Len())
	entry := logs.All()[0]
	s.Equal("[Scheduler] failed: sync", entry.Message)
	s.Equal(zapcore.ErrorLevel, entry.Level)

	fields := entry.ContextMap()
	s.Equal("sync", fields["task"])
	s.EqualValues(2, fields["attempt"])
	s.Equal(time.Second, fields["elapsed"])
	s.Equal("boom", fields["error"])
}

func (s *LoggerTestSuite) TestWithContext() {
	core, logs := observer.New(zapcore.DebugLevel)
	log := newFromZap(zap.New(core))

	log.WithContext(ContextWithTask(context.Background(), "cleanup")).Info("done")
	log.WithContext(context.Background()).Debug("plain")

	s.Require().Equal(2, logs.Len())
	s.Equal("cleanup", logs.All()[0].ContextMap()["task"])
	s.NotContains(logs.All()[1].ContextMap(), "task")
}

func (s *LoggerTestSuite) TestNop() {
	log := NewNop()
	log.Info("ignored")
	log.With(Any("k", []int{1})).Warnf("ignored %d", 1)
	s.NoError(log.Sync())
}
