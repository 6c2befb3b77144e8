package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tsukikage7/cronkit/cron"
)

func noop(context.Context) error { return nil }

func TestRegistration_GeneratesName(t *testing.T) {
	s := MustNew()
	task, err := s.Schedule(noop).Cron("* * * * * *")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(task.Name, "task-"))
	assert.Equal(t, "task:"+task.Name, task.MutexKey)

	got, ok := s.Get(task.Name)
	require.True(t, ok)
	assert.Same(t, task, got)
}

func TestRegistration_MalformedCron(t *testing.T) {
	s := MustNew()
	task, err := s.Schedule(noop).Named("bad").Cron("* * * * *")
	assert.Nil(t, task)
	assert.ErrorIs(t, err, cron.ErrMalformedExpression)

	_, ok := s.Get("bad")
	assert.False(t, ok)
	assert.Panics(t, func() { s.Schedule(noop).MustCron("61 * * * * *") })
}

func TestRegistration_DuplicateName(t *testing.T) {
	s := MustNew()
	_, err := s.Schedule(noop).Named("dup").Cron("* * * * * *")
	require.NoError(t, err)

	_, err = s.Schedule(noop).Named("dup").Cron("0 * * * * *")
	assert.ErrorIs(t, err, ErrTaskExists)
}

func TestRegistration_SealedOnce(t *testing.T) {
	s := MustNew()
	r := s.Schedule(noop).Named("sealed")
	_, err := r.Cron("* * * * * *")
	require.NoError(t, err)

	_, err = r.Cron("0 * * * * *")
	assert.ErrorIs(t, err, ErrRegistrationSealed)
}

func TestRegistration_Every(t *testing.T) {
	s := MustNew()
	task, err := s.Schedule(noop).Named("hourly").Every(cron.Hourly())
	require.NoError(t, err)
	assert.Equal(t, "0 0 * * * *", task.Rule.String())

	_, err = s.Schedule(noop).Every(nil)
	assert.ErrorIs(t, err, ErrRuleNil)
}

func TestRegistration_OnRuleFunc(t *testing.T) {
	s := MustNew()
	evenSeconds := RuleFunc(func(t time.Time) bool { return t.Second()%2 == 0 })
	task, err := s.Schedule(noop).Named("even").On(evenSeconds)
	require.NoError(t, err)
	assert.Equal(t, "func", task.Rule.String())

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Len(t, s.RunAt(context.Background(), base).Ran(), 1)
	assert.Empty(t, s.RunAt(context.Background(), base.Add(time.Second)).Outcomes)
}

func TestRegistration_Settings(t *testing.T) {
	s := MustNew()
	task, err := s.Schedule(noop).
		Named("configured").
		PreventOverlapping("shared").
		MutexTTL(time.Hour).
		Timeout(time.Minute).
		Once().
		After(func(context.Context, *TaskContext) {}).
		Cron("0 0 3 * * *")
	require.NoError(t, err)

	assert.Equal(t, "shared", task.MutexKey)
	assert.Equal(t, time.Hour, task.MutexTTL)
	assert.Equal(t, time.Minute, task.Timeout)
	assert.True(t, task.Once)
	require.NotNil(t, task.Hooks)
	assert.Len(t, task.Hooks.AfterTask, 1)
}

func TestAdd_Validate(t *testing.T) {
	s := MustNew()
	rule := cron.EverySecond()

	assert.ErrorIs(t, s.Add(nil), ErrTaskNil)
	assert.ErrorIs(t, s.Add(&Task{Rule: rule, Handler: noop}), ErrTaskNameEmpty)
	assert.ErrorIs(t, s.Add(&Task{Name: "x", Handler: noop}), ErrRuleNil)
	assert.ErrorIs(t, s.Add(&Task{Name: "x", Rule: rule}), ErrHandlerNil)
	assert.NoError(t, s.Add(&Task{Name: "x", Rule: rule, Handler: noop}))
}

func TestRemoveAndList(t *testing.T) {
	s := MustNew()
	for _, name := range []string{"c", "a", "b"} {
		s.Schedule(noop).Named(name).MustCron("* * * * * *")
	}

	names := func() []string {
		var out []string
		for _, task := range s.List() {
			out = append(out, task.Name)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "c"}, names())

	require.NoError(t, s.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, names())
	assert.ErrorIs(t, s.Remove("b"), ErrTaskNotFound)
}

func TestTaskState_String(t *testing.T) {
	assert.Equal(t, "idle", TaskStateIdle.String())
	assert.Equal(t, "running", TaskStateRunning.String())
	assert.Equal(t, "unknown", TaskState(9).String())
}

func TestRegistration_SettersAfterSealIgnored(t *testing.T) {
	s := MustNew()
	r := s.Schedule(noop).Named("a").Timeout(time.Minute)
	task, err := r.Cron("* * * * * *")
	require.NoError(t, err)

	var late bool
	r.Named("b").
		PreventOverlapping("stolen").
		MutexTTL(time.Second).
		Timeout(time.Second).
		Once().
		When(func(context.Context, time.Time) (bool, error) { return false, nil }).
		Before(func(context.Context, *TaskContext) error { late = true; return nil })

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Same(t, task, got)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, "task:a", got.MutexKey)
	assert.Equal(t, DefaultMutexTTL, got.MutexTTL)
	assert.Equal(t, time.Minute, got.Timeout)
	assert.False(t, got.Once)
	assert.Nil(t, got.When)
	assert.Nil(t, got.Hooks)

	_, ok = s.Get("b")
	assert.False(t, ok)

	result := s.RunAt(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Len(t, result.Ran(), 1)
	assert.False(t, late)
}

func TestRegistration_HooksCopiedOnSeal(t *testing.T) {
	s := MustNew()
	r := s.Schedule(noop).Named("hooked").Before(func(context.Context, *TaskContext) error { return nil })
	task, err := r.Cron("* * * * * *")
	require.NoError(t, err)

	r.Before(func(context.Context, *TaskContext) error { return errors.New("late veto") })
	require.NotNil(t, task.Hooks)
	assert.Len(t, task.Hooks.BeforeTask, 1)
}

func TestRegistration_SettersRaceWithDispatch(t *testing.T) {
	s := MustNew()
	r := s.Schedule(noop).Named("busy")
	_, err := r.Cron("* * * * * *")
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 50 {
			s.RunAt(context.Background(), base.Add(time.Duration(i)*time.Second))
		}
	}()

	for range 50 {
		r.PreventOverlapping("k").Timeout(time.Second).Once()
	}
	<-done

	got, ok := s.Get("busy")
	require.True(t, ok)
	assert.Equal(t, "task:busy", got.MutexKey)
	assert.Zero(t, got.Timeout)
}

func TestRegistration_RetryAfterFailedSeal(t *testing.T) {
	s := MustNew()
	_, err := s.Schedule(noop).Named("taken").Cron("* * * * * *")
	require.NoError(t, err)

	r := s.Schedule(noop).Named("taken")
	_, err = r.Cron("* * * * * *")
	require.ErrorIs(t, err, ErrTaskExists)

	task, err := r.Named("free").Cron("* * * * * *")
	require.NoError(t, err)
	assert.Equal(t, "free", task.Name)
}
