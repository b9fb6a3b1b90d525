package service

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/fyrsmithlabs/snakebot/internal/dice"
	"github.com/fyrsmithlabs/snakebot/internal/game"
	"github.com/fyrsmithlabs/snakebot/internal/logging"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/fyrsmithlabs/snakebot/internal/plan"
	"github.com/fyrsmithlabs/snakebot/internal/pose"
	"github.com/fyrsmithlabs/snakebot/internal/robot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func TestMailbox_SubmitDiceValidates(t *testing.T) {
	mb := NewMailbox()
	for _, v := range []int{0, 7, -1} {
		assert.ErrorIs(t, mb.SubmitDice(v), ErrInvalidDice)
	}
	assert.NoError(t, mb.SubmitDice(6))
}

func TestMailbox_StaleInputIsDiscarded(t *testing.T) {
	mb := NewMailbox()
	require.NoError(t, mb.SubmitDice(4))
	mb.ConfirmCollision()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := mb.AwaitDice(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, mb.AwaitCollision(ctx), context.DeadlineExceeded)
}

func TestMailbox_AwaitDice(t *testing.T) {
	mb := NewMailbox()
	got := make(chan int, 1)
	go func() {
		v, err := mb.AwaitDice(context.Background())
		if err == nil {
			got <- v
		}
	}()

	var v int
	require.Eventually(t, func() bool {
		_ = mb.SubmitDice(5)
		select {
		case v = <-got:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 5, v)
}

// A roll submitted while a wait is starting is either discarded as stale or
// delivered; it is never left staged with nobody woken.
func TestMailbox_SubmitDuringAwaitStart(t *testing.T) {
	for i := 0; i < 200; i++ {
		mb := NewMailbox()
		ctx, cancel := context.WithCancel(context.Background())
		got := make(chan int, 1)
		start := make(chan struct{})

		go func() {
			<-start
			if v, err := mb.AwaitDice(ctx); err == nil {
				got <- v
			}
		}()
		close(start)
		require.NoError(t, mb.SubmitDice(2))

		require.Eventually(t, func() bool {
			select {
			case v := <-got:
				return v == 2
			default:
			}
			mb.mu.Lock()
			defer mb.mu.Unlock()
			return !mb.hasDice
		}, time.Second, time.Millisecond, "iteration %d", i)
		cancel()
	}
}

func TestMailbox_AwaitRobotDice(t *testing.T) {
	mb := NewMailbox()
	got := make(chan int, 1)
	go func() {
		v, err := mb.AwaitRobotDice(context.Background())
		if err == nil {
			got <- v
		}
	}()

	var v int
	require.Eventually(t, func() bool {
		_ = mb.SubmitDice(1)
		select {
		case v = <-got:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, v)
}

func TestMailbox_AwaitCollision(t *testing.T) {
	mb := NewMailbox()
	done := make(chan error, 1)
	go func() { done <- mb.AwaitCollision(context.Background()) }()

	require.Eventually(t, func() bool {
		mb.ConfirmCollision()
		select {
		case err := <-done:
			return err == nil
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestMailbox_Canceled(t *testing.T) {
	mb := NewMailbox()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mb.AwaitDice(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func newTestFactory(t *testing.T, events notify.Notifier) *game.Factory {
	t.Helper()
	cfg := config.Default()
	table, err := pose.NewTable(cfg.Poses, cfg.Board.Length)
	require.NoError(t, err)
	sim := robot.NewSimulator(nil)

	return &game.Factory{
		Config:   cfg,
		Builder:  plan.NewBuilder(table, cfg.Gripper),
		Executor: plan.NewExecutor(sim, events, plan.WithSleeper(noSleep)),
		Dice:     dice.Fixed(5),
		Notifier: events,
		Logger:   logging.NewTestLogger().Logger,
		Sleep:    noSleep,
	}
}

func TestRunner_PlaysGameToTheEnd(t *testing.T) {
	events := &notify.Recorder{}
	r := NewRunner(newTestFactory(t, events), zap.NewNop())

	id, err := r.Start(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = r.Start(context.Background())
	assert.ErrorIs(t, err, ErrGameRunning)
	assert.True(t, r.State().Running)

	require.Eventually(t, func() bool {
		_ = r.Mailbox().SubmitDice(6)
		return !r.State().Running
	}, 5*time.Second, 2*time.Millisecond)
	r.Wait()

	st := r.State()
	assert.Equal(t, id, st.SessionID)
	assert.Empty(t, st.Err)
	require.NotNil(t, st.Result)
	assert.Equal(t, "player", st.Result.Winner)
	assert.Equal(t, 30, st.Board.PlayerPosition)
	assert.True(t, st.Board.GameOver)
	assert.NotEmpty(t, events.OfType(notify.EventGameOver))

	// a finished game frees the runner
	ctx, cancel := context.WithCancel(context.Background())
	id2, err := r.Start(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
	cancel()
	r.Wait()
}

func TestRunner_ShutdownUnblocksWorker(t *testing.T) {
	r := NewRunner(newTestFactory(t, notify.Discard), nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := r.Start(ctx)
	require.NoError(t, err)

	cancel()
	r.Wait()

	st := r.State()
	assert.False(t, st.Running)
	assert.Contains(t, st.Err, "context canceled")
}
