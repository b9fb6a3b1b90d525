package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/fyrsmithlabs/snakebot/internal/dice"
	"github.com/fyrsmithlabs/snakebot/internal/game"
	"github.com/fyrsmithlabs/snakebot/internal/history"
	"github.com/fyrsmithlabs/snakebot/internal/logging"
	"github.com/fyrsmithlabs/snakebot/internal/metrics"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/fyrsmithlabs/snakebot/internal/plan"
	"github.com/fyrsmithlabs/snakebot/internal/pose"
	"github.com/fyrsmithlabs/snakebot/internal/robot"
	"github.com/fyrsmithlabs/snakebot/internal/telemetry"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const instrumentationName = "github.com/fyrsmithlabs/snakebot"

// app holds the process-wide collaborators shared by every game.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	table     *pose.Table
	driver    robot.Driver
	dice      dice.Source
	store     *history.Store
	natsConn  *nats.Conn
	publisher *notify.Publisher
	metrics   *metrics.Metrics
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// initLogger builds the process logger. quiet raises the level to warn so
// log lines stay out of the terminal game.
func initLogger(cfg *config.Config, tel *telemetry.Telemetry, quiet bool) (*logging.Logger, error) {
	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, err
	}
	if quiet && logCfg.Level < zapcore.WarnLevel {
		logCfg.Level = zapcore.WarnLevel
	}
	provider := tel.LoggerProvider()
	if provider != nil {
		logCfg.Output.OTEL = true
	}
	return logging.NewLogger(logCfg, provider)
}

// newApp initializes telemetry, logging, the robot session, the dice source
// and the optional NATS and history backends.
func newApp(ctx context.Context, cfg *config.Config, quiet bool) (*app, error) {
	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logger, err := initLogger(cfg, tel, quiet)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		telemetry: tel,
		metrics:   metrics.NewMetrics(),
	}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	zl := a.logger.Underlying()

	for _, reason := range a.telemetry.Degraded() {
		a.logger.Warn(ctx, "telemetry degraded", zap.String("reason", reason))
	}

	table, err := pose.NewTable(a.cfg.Poses, a.cfg.Board.Length)
	if err != nil {
		return fmt.Errorf("failed to build pose table: %w", err)
	}
	a.table = table

	// the manual source asks through each session's prompter, so the
	// factory builds it per game
	if a.cfg.Dice.Source != config.DiceSourceManual {
		src, err := dice.New(a.cfg.Dice, nil, zl)
		if err != nil {
			return fmt.Errorf("failed to create dice source: %w", err)
		}
		a.dice = src
	}

	if a.cfg.NATS.Enabled {
		opts := []nats.Option{nats.Name("snakebot")}
		if a.cfg.NATS.Token.IsSet() {
			opts = append(opts, nats.Token(a.cfg.NATS.Token.Value()))
		}
		nc, err := nats.Connect(a.cfg.NATS.URL, opts...)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		a.natsConn = nc
		a.publisher = notify.NewPublisher(nc, a.cfg.NATS.SubjectPrefix, zl)
	}

	if a.cfg.History.Enabled {
		store, err := history.Open(a.cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		a.store = store
	}

	driver, err := robot.New(a.cfg.Robot, zl)
	if err != nil {
		return fmt.Errorf("failed to create robot driver: %w", err)
	}
	if err := driver.Connect(ctx, table.Rest); err != nil {
		return fmt.Errorf("failed to connect to robot: %w", err)
	}
	a.driver = driver

	a.logger.Info(ctx, "snakebot initialized",
		zap.String("robot_driver", a.cfg.Robot.Driver),
		zap.String("dice_source", a.cfg.Dice.Source),
		zap.String("post_warp", a.cfg.Collision.PostWarp),
		zap.Bool("nats_connected", a.natsConn != nil),
		zap.Bool("history_enabled", a.store != nil))
	return nil
}

// factory wires a game factory around n.
func (a *app) factory(n notify.Notifier) *game.Factory {
	tracer := a.telemetry.Tracer(instrumentationName)
	exec := plan.NewExecutor(a.driver, n,
		plan.WithDwellScale(a.cfg.Robot.DwellScale),
		plan.WithTracer(tracer),
		plan.WithLogger(a.logger.Underlying()),
	)

	f := &game.Factory{
		Config:   a.cfg,
		Builder:  plan.NewBuilder(a.table, a.cfg.Gripper),
		Executor: exec,
		Dice:     a.dice,
		Notifier: n,
		Metrics:  a.metrics,
		Logger:   a.logger,
		Tracer:   tracer,
	}
	if a.store != nil {
		f.Journal = a.store
	}
	return f
}

// Close releases the robot session and every backend. It is safe on a
// partially initialized app.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.driver != nil {
		if err := a.driver.Close(ctx); err != nil {
			a.logger.Warn(ctx, "failed to release robot", zap.Error(err))
		}
	}
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.natsConn.Close()
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn(ctx, "failed to close history", zap.Error(err))
		}
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
