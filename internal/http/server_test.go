package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/fyrsmithlabs/snakebot/internal/dice"
	"github.com/fyrsmithlabs/snakebot/internal/game"
	"github.com/fyrsmithlabs/snakebot/internal/history"
	"github.com/fyrsmithlabs/snakebot/internal/logging"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/fyrsmithlabs/snakebot/internal/plan"
	"github.com/fyrsmithlabs/snakebot/internal/pose"
	"github.com/fyrsmithlabs/snakebot/internal/robot"
	"github.com/fyrsmithlabs/snakebot/internal/service"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestRunner(t *testing.T) *service.Runner {
	t.Helper()
	cfg := config.Default()
	table, err := pose.NewTable(cfg.Poses, cfg.Board.Length)
	require.NoError(t, err)

	f := &game.Factory{
		Config:   cfg,
		Builder:  plan.NewBuilder(table, cfg.Gripper),
		Executor: plan.NewExecutor(robot.NewSimulator(nil), notify.Discard, plan.WithSleeper(noSleep)),
		Dice:     dice.Fixed(5),
		Notifier: notify.Discard,
		Logger:   logging.NewTestLogger().Logger,
		Sleep:    noSleep,
	}
	return service.NewRunner(f, zap.NewNop())
}

func setupTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	runner := newTestRunner(t)
	t.Cleanup(func() {
		cancel()
		runner.Wait()
	})

	opts = append([]Option{WithBaseContext(ctx)}, opts...)
	server, err := NewServer(runner, notify.NewHub(nil), zap.NewNop(), nil, opts...)
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestNewServer(t *testing.T) {
	runner := newTestRunner(t)
	hub := notify.NewHub(nil)

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(runner, hub, zap.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0", server.config.Host)
		assert.Equal(t, 5001, server.config.Port)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(runner, hub, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when runner is nil", func(t *testing.T) {
		_, err := NewServer(nil, hub, zap.NewNop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "runner cannot be nil")
	})

	t.Run("returns error when hub is nil", func(t *testing.T) {
		_, err := NewServer(runner, nil, zap.NewNop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hub cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	server := setupTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestHandleStart(t *testing.T) {
	server := setupTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/game/start", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decode[SuccessResponse](t, rec)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.SessionID)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/game/start", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, decode[SuccessResponse](t, rec).Success)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/game/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[StateResponse](t, rec)
	assert.True(t, state.Running)
	assert.Equal(t, resp.SessionID, state.SessionID)
	assert.Equal(t, 1, state.PlayerPosition)
	assert.Equal(t, "player", state.CurrentTurn)
}

func TestHandleDice(t *testing.T) {
	server := setupTestServer(t)

	t.Run("accepts a valid value", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/v1/game/dice", DiceRequest{DiceValue: 3})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[SuccessResponse](t, rec).Success)
	})

	t.Run("rejects values outside 1..6", func(t *testing.T) {
		for _, v := range []int{0, 7} {
			rec := doJSON(t, server, http.MethodPost, "/api/v1/game/dice", DiceRequest{DiceValue: v})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[SuccessResponse](t, rec)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, "between 1 and 6")
		}
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/game/dice", strings.NewReader("{"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		server.echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGameOverHTTP(t *testing.T) {
	server := setupTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/game/start", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		_ = server.runner.Mailbox().SubmitDice(6)
		return !server.runner.State().Running
	}, 5*time.Second, 2*time.Millisecond)

	state := decode[StateResponse](t, doJSON(t, server, http.MethodGet, "/api/v1/game/state", nil))
	assert.True(t, state.GameOver)
	assert.Equal(t, "player", state.Winner)
	assert.Equal(t, 30, state.PlayerPosition)
}

func TestHandleCollision(t *testing.T) {
	server := setupTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/game/collision", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[SuccessResponse](t, rec).Success)
}

func TestHandleState_NoGame(t *testing.T) {
	server := setupTestServer(t)

	state := decode[StateResponse](t, doJSON(t, server, http.MethodGet, "/api/v1/game/state", nil))
	assert.False(t, state.Running)
	assert.Empty(t, state.SessionID)
	assert.Empty(t, state.CurrentTurn)
}

func TestHandleMetrics(t *testing.T) {
	server := setupTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHandleWS(t *testing.T) {
	hubServer := setupTestServer(t)
	ts := httptest.NewServer(hubServer.echo)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hubServer.hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	hubServer.hub.Notify(context.Background(), notify.Log("Robot's turn starting...", notify.CategoryRobot))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var e notify.Event
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, notify.EventLog, e.Type)
	assert.Equal(t, "Robot's turn starting...", e.Message)
}

func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func TestHandleEvents(t *testing.T) {
	t.Run("unavailable without nats", func(t *testing.T) {
		server := setupTestServer(t)
		rec := doJSON(t, server, http.MethodGet, "/api/v1/game/events", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("streams published events", func(t *testing.T) {
		ns := startTestNATSServer(t)
		nc, err := nats.Connect(ns.ClientURL())
		require.NoError(t, err)
		defer nc.Close()

		server := setupTestServer(t, WithNATS(nc, "test"))
		ts := httptest.NewServer(server.echo)
		defer ts.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/game/events", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		lines := make(chan string, 16)
		go func() {
			sc := bufio.NewScanner(resp.Body)
			for sc.Scan() {
				lines <- sc.Text()
			}
			close(lines)
		}()

		pub := notify.NewPublisher(nc, "test", nil)
		var got []string
		require.Eventually(t, func() bool {
			_ = pub.Publish(notify.Waiting("Waiting for robot turn..."))
			for {
				select {
				case l, ok := <-lines:
					if !ok {
						return false
					}
					got = append(got, l)
					if strings.HasPrefix(l, "data: ") {
						return true
					}
				case <-time.After(20 * time.Millisecond):
					return false
				}
			}
		}, 3*time.Second, 10*time.Millisecond)

		assert.Contains(t, got, "event: waiting")
		assert.Contains(t, got[len(got)-1], `"message":"Waiting for robot turn..."`)
	})
}

type fakeHistory struct {
	games []history.GameRow
	turns map[string][]history.TurnRow
	stats history.Stats
	err   error
	limit int
}

func (f *fakeHistory) RecentGames(_ context.Context, limit int) ([]history.GameRow, error) {
	f.limit = limit
	return f.games, f.err
}

func (f *fakeHistory) Turns(_ context.Context, id string) ([]history.TurnRow, error) {
	return f.turns[id], f.err
}

func (f *fakeHistory) Stats(context.Context) (history.Stats, error) {
	return f.stats, f.err
}

func TestHistoryEndpoints(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		server := setupTestServer(t)
		rec := doJSON(t, server, http.MethodGet, "/api/v1/history/stats", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	h := &fakeHistory{
		games: []history.GameRow{{SessionID: "a", Winner: "robot", RobotPosition: 30, Turns: 12}},
		turns: map[string][]history.TurnRow{"a": {{SessionID: "a", Number: 1, Actor: "player", Roll: 2, From: 1, Landing: 3, Final: 7, Outcome: "moved"}}},
		stats: history.Stats{Games: 1, RobotWins: 1},
	}
	server := setupTestServer(t, WithHistory(h))

	t.Run("games", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/v1/history/games?limit=500", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		games := decode[[]GameSummary](t, rec)
		require.Len(t, games, 1)
		assert.Equal(t, "robot", games[0].Winner)
		assert.Equal(t, maxHistoryLimit, h.limit)

		rec = doJSON(t, server, http.MethodGet, "/api/v1/history/games?limit=zero", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("turns", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/v1/history/games/a/turns", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		turns := decode[[]TurnSummary](t, rec)
		require.Len(t, turns, 1)
		assert.Equal(t, 7, turns[0].Final)

		rec = doJSON(t, server, http.MethodGet, "/api/v1/history/games/missing/turns", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("stats", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/v1/history/stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, StatsResponse{Games: 1, RobotWins: 1}, decode[StatsResponse](t, rec))
	})

	t.Run("store failure", func(t *testing.T) {
		broken := setupTestServer(t, WithHistory(&fakeHistory{err: errors.New("disk I/O error")}))
		rec := doJSON(t, broken, http.MethodGet, "/api/v1/history/stats", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
