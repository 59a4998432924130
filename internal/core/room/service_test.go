package room_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_compatibility/internal/adapters/logger"
	"github.com/baditaflorin/go_compatibility/internal/adapters/store/sqlite"
	"github.com/baditaflorin/go_compatibility/internal/adapters/tokenizer"
	"github.com/baditaflorin/go_compatibility/internal/core/compat"
	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/core/room"
	"github.com/baditaflorin/go_compatibility/internal/evaluator"
	"github.com/baditaflorin/go_compatibility/internal/ports"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	svc   *room.Service
	store *sqlite.Store
	clock *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := &clock{now: time.Date(2024, 2, 14, 20, 0, 0, 0, time.UTC)}
	cfg := compat.DefaultConfig()
	cfg.Clock = c.Now
	calc, err := compat.NewCalculator(cfg, logger.NewNopLogger(), tokenizer.NewDefaultTokenizer())
	require.NoError(t, err)

	eval := evaluator.New(calc, logger.NewNopLogger())
	svc := room.NewService(store, eval, logger.NewNopLogger(), room.Config{ResultTTL: 2 * time.Minute, Clock: c.Now})
	return &fixture{svc: svc, store: store, clock: c}
}

var full = domain.AnswerSet{Q1: "trust and honesty", Q2: "quality time", Q3: "cheating"}

func TestKey(t *testing.T) {
	assert.Equal(t, "date-night", room.Key("  Date   Night "))
	assert.Equal(t, "a-b-c", room.Key("A\tB\nC"))
	assert.Equal(t, "", room.Key("   "))
}

func TestCreateAndJoin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, "   ", "alice")
	assert.ErrorIs(t, err, room.ErrNameRequired)
	_, err = f.svc.Create(ctx, "Date Night", "")
	assert.ErrorIs(t, err, room.ErrUIDRequired)

	created, err := f.svc.Create(ctx, "Date Night", "alice")
	require.NoError(t, err)
	assert.Equal(t, "date-night", created.Key)
	assert.Equal(t, "Date Night", created.Name)

	_, err = f.svc.Create(ctx, "date   night", "carol")
	assert.ErrorIs(t, err, room.ErrRoomExists)

	_, err = f.svc.Join(ctx, "Unknown", "bob")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)

	joined, err := f.svc.Join(ctx, "DATE NIGHT", "bob")
	require.NoError(t, err)
	assert.True(t, joined.HasParticipant("alice"))
	assert.True(t, joined.HasParticipant("bob"))
}

func TestSubmitScoresWhenBothAnswered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, "r", "alice")
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, "r", "bob")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, "r", "alice", domain.AnswerSet{Q1: "x", Q2: " ", Q3: "z"})
	assert.ErrorIs(t, err, room.ErrIncompleteAnswers)
	_, err = f.svc.Submit(ctx, "r", "mallory", full)
	assert.ErrorIs(t, err, room.ErrNotParticipant)
	_, err = f.svc.Submit(ctx, "nope", "alice", full)
	assert.ErrorIs(t, err, room.ErrRoomNotFound)

	waiting, err := f.svc.Submit(ctx, "r", "alice", domain.AnswerSet{Q1: "  trust and honesty ", Q2: "quality time", Q3: "cheating"})
	require.NoError(t, err)
	assert.Nil(t, waiting.Result)
	sub, ok := waiting.Submission("alice")
	require.True(t, ok)
	assert.Equal(t, "trust and honesty", sub.Answers.Q1)

	scored, err := f.svc.Submit(ctx, "r", "bob", full)
	require.NoError(t, err)
	require.NotNil(t, scored.Result)
	assert.Equal(t, 100.0, scored.Result.Percentage)
	assert.Equal(t, compat.MessagePerfect, scored.Result.Message)

	// A later resubmission does not rescore.
	again, err := f.svc.Submit(ctx, "r", "bob", domain.AnswerSet{Q1: "cats", Q2: "dogs", Q3: "birds"})
	require.NoError(t, err)
	require.NotNil(t, again.Result)
	assert.Equal(t, 100.0, again.Result.Percentage)
}

type failingStore struct {
	ports.RoomStore
}

func (failingStore) SetResult(context.Context, string, domain.Result) (bool, error) {
	return false, errors.New("disk full")
}

func TestSubmitReturnsResultWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	calc, err := compat.NewCalculator(compat.DefaultConfig(), logger.NewNopLogger(), tokenizer.NewDefaultTokenizer())
	require.NoError(t, err)
	svc := room.NewService(failingStore{f.store}, evaluator.New(calc, logger.NewNopLogger()), logger.NewNopLogger(), room.DefaultConfig())

	_, err = svc.Create(ctx, "r", "alice")
	require.NoError(t, err)
	_, err = svc.Join(ctx, "r", "bob")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "r", "alice", full)
	require.NoError(t, err)

	got, err := svc.Submit(ctx, "r", "bob", full)
	require.NoError(t, err)
	require.NotNil(t, got.Result)
	assert.Equal(t, 100.0, got.Result.Percentage)
}

func TestSweepDeletesRoomWhoseResultWasNotStored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	calc, err := compat.NewCalculator(compat.DefaultConfig(), logger.NewNopLogger(), tokenizer.NewDefaultTokenizer())
	require.NoError(t, err)
	svc := room.NewService(failingStore{f.store}, evaluator.New(calc, logger.NewNopLogger()), logger.NewNopLogger(),
		room.Config{ResultTTL: 2 * time.Minute, Clock: f.clock.Now})

	_, err = svc.Create(ctx, "r", "alice")
	require.NoError(t, err)
	_, err = svc.Join(ctx, "r", "bob")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "r", "alice", full)
	require.NoError(t, err)
	got, err := svc.Submit(ctx, "r", "bob", full)
	require.NoError(t, err)
	require.NotNil(t, got.Result)

	stored, err := svc.Get(ctx, "r")
	require.NoError(t, err)
	assert.Nil(t, stored.Result)

	f.clock.now = f.clock.now.Add(time.Minute)
	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.now = f.clock.now.Add(90 * time.Second)
	n, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.Get(ctx, "r")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestSweepDeletesExpiredRooms(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, "r", "alice")
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, "r", "bob")
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, "r", "alice", full)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, "r", "bob", full)
	require.NoError(t, err)

	f.clock.now = f.clock.now.Add(time.Minute)
	n, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.now = f.clock.now.Add(90 * time.Second)
	n, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.svc.Get(ctx, "r")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.svc.RunSweeper(ctx, 5*time.Millisecond) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
