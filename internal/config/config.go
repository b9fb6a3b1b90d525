// Package config provides configuration loading for snakebot.
//
// Configuration is static: it is loaded once at startup from defaults, an
// optional YAML file and SNAKEBOT_* environment variables, validated, and never
// mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Policy names accepted by the dice and collision sections.
const (
	DiceSourceDetector = "detector"
	DiceSourceFixed    = "fixed"
	DiceSourceManual   = "manual"

	FallbackDefault = "default"
	FallbackSkip    = "skip"
	FallbackAbort   = "abort"

	PostWarpImmediate = "immediate"
	PostWarpConfirm   = "confirm"

	DriverCherrybot = "cherrybot"
	DriverSimulator = "simulator"
)

// Config holds the complete snakebot configuration.
type Config struct {
	Board     BoardConfig     `koanf:"board"`
	Poses     PosesConfig     `koanf:"poses"`
	Gripper   GripperConfig   `koanf:"gripper"`
	Robot     RobotConfig     `koanf:"robot"`
	Dice      DiceConfig      `koanf:"dice"`
	Collision CollisionConfig `koanf:"collision"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	NATS      NATSConfig      `koanf:"nats"`
	History   HistoryConfig   `koanf:"history"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// BoardConfig describes the board topology.
type BoardConfig struct {
	Length int          `koanf:"length"`
	Warps  []WarpConfig `koanf:"warps"`
}

// WarpConfig is one ladder or snake.
type WarpConfig struct {
	From int `koanf:"from"`
	To   int `koanf:"to"`
}

// PoseConfig is a 6-DoF target plus approach speed.
type PoseConfig struct {
	X     float64 `koanf:"x"`
	Y     float64 `koanf:"y"`
	Z     float64 `koanf:"z"`
	Roll  float64 `koanf:"roll"`
	Pitch float64 `koanf:"pitch"`
	Yaw   float64 `koanf:"yaw"`
	Speed int     `koanf:"speed"`
}

// PosesConfig holds the fixed waypoints and the field layout.
type PosesConfig struct {
	Rest      PoseConfig          `koanf:"rest"`
	DiceAbove PoseConfig          `koanf:"dice_above"`
	DiceDown  PoseConfig          `koanf:"dice_down"`
	Throw     PoseConfig          `koanf:"throw"`
	Layout    LayoutConfig        `koanf:"layout"`
	Fields    []FieldPoseOverride `koanf:"fields"`
}

// LayoutConfig generates field poses on a serpentine grid of five fields per
// row, starting at field 1.
type LayoutConfig struct {
	OriginX float64 `koanf:"origin_x"`
	OriginY float64 `koanf:"origin_y"`
	StepX   float64 `koanf:"step_x"`
	StepY   float64 `koanf:"step_y"`
	AboveZ  float64 `koanf:"above_z"`
	DownZ   float64 `koanf:"down_z"`
	Roll    float64 `koanf:"roll"`
	Pitch   float64 `koanf:"pitch"`
	Yaw     float64 `koanf:"yaw"`
	AltYaw  float64 `koanf:"alt_yaw"`
	Speed   int     `koanf:"speed"`
}

// FieldPoseOverride pins the x/y position of a single field.
type FieldPoseOverride struct {
	Field int     `koanf:"field"`
	X     float64 `koanf:"x"`
	Y     float64 `koanf:"y"`
}

// GripperConfig holds gripper opening values.
type GripperConfig struct {
	Open         int `koanf:"open"`
	ClosedDie    int `koanf:"closed_die"`
	ClosedFigure int `koanf:"closed_figure"`
}

// RobotConfig configures the actuator transport.
type RobotConfig struct {
	Driver        string   `koanf:"driver"`
	BaseURL       string   `koanf:"base_url"`
	OperatorName  string   `koanf:"operator_name"`
	OperatorEmail string   `koanf:"operator_email"`
	Timeout       Duration `koanf:"timeout"`
	RateLimit     float64  `koanf:"rate_limit"` // requests per second
	DwellScale    float64  `koanf:"dwell_scale"`
}

// DiceConfig configures how the robot reads its own roll.
type DiceConfig struct {
	Source        string   `koanf:"source"`
	DetectorURL   string   `koanf:"detector_url"`
	Attempts      int      `koanf:"attempts"`
	Wait          Duration `koanf:"wait"`
	FixedValue    int      `koanf:"fixed_value"`
	Fallback      string   `koanf:"fallback"`
	FallbackValue int      `koanf:"fallback_value"`
}

// CollisionConfig selects how a post-warp bump is resolved.
type CollisionConfig struct {
	PostWarp string `koanf:"post_warp"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// NATSConfig enables event publishing to NATS.
type NATSConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	Token         Secret `koanf:"token"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// HistoryConfig controls the SQLite game history.
type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled    bool    `koanf:"enabled"`
	Endpoint   string  `koanf:"endpoint"`
	Protocol   string  `koanf:"protocol"`
	Insecure   bool    `koanf:"insecure"`
	SampleRate float64 `koanf:"sample_rate"`
}

// Default returns the built-in configuration: the 30-field board with the
// standard warp table and the cherrybot waypoints.
func Default() *Config {
	flat := func(x, y, z float64) PoseConfig {
		return PoseConfig{X: x, Y: y, Z: z, Roll: 0, Pitch: 180, Yaw: 180, Speed: 50}
	}
	return &Config{
		Board: BoardConfig{
			Length: 30,
			Warps: []WarpConfig{
				{From: 3, To: 7},
				{From: 11, To: 19},
				{From: 15, To: 23},
				{From: 29, To: 20},
				{From: 27, To: 16},
				{From: 18, To: 10},
				{From: 6, To: 4},
			},
		},
		Poses: PosesConfig{
			Rest:      flat(400, 0, 300),
			DiceAbove: flat(300, 100, 150),
			DiceDown:  flat(300, 100, 50),
			Throw:     flat(300, 0, 200),
			Layout: LayoutConfig{
				OriginX: 250,
				OriginY: 150,
				StepX:   -50,
				StepY:   50,
				AboveZ:  150,
				DownZ:   50,
				Pitch:   180,
				Yaw:     180,
				AltYaw:  90,
				Speed:   50,
			},
		},
		Gripper: GripperConfig{
			Open:         800,
			ClosedDie:    0,
			ClosedFigure: 300,
		},
		Robot: RobotConfig{
			Driver:        DriverCherrybot,
			BaseURL:       "https://api.interactions.ics.unisg.ch/cherrybot2",
			OperatorName:  "snake.exe",
			OperatorEmail: "snake@mail.com",
			Timeout:       Duration(10 * time.Second),
			RateLimit:     5,
			DwellScale:    1.0,
		},
		Dice: DiceConfig{
			Source:        DiceSourceDetector,
			DetectorURL:   "http://localhost:8000/dice",
			Attempts:      5,
			Wait:          Duration(2 * time.Second),
			FixedValue:    3,
			Fallback:      FallbackDefault,
			FallbackValue: 3,
		},
		Collision: CollisionConfig{
			PostWarp: PostWarpImmediate,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5001,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			SubjectPrefix: "snakebot",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "~/.local/share/snakebot/history.db",
		},
		Telemetry: TelemetryConfig{
			Endpoint:   "localhost:4317",
			Protocol:   "grpc",
			Insecure:   true,
			SampleRate: 1.0,
		},
	}
}

// Validate validates the configuration.
//
// Board invariants are checked here so a bad warp table fails at startup
// rather than mid-game.
func (c *Config) Validate() error {
	if err := c.Board.Validate(); err != nil {
		return fmt.Errorf("board: %w", err)
	}

	if c.Gripper.Open < 0 || c.Gripper.ClosedDie < 0 || c.Gripper.ClosedFigure < 0 {
		return errors.New("gripper: values must not be negative")
	}

	for _, f := range c.Poses.Fields {
		if f.Field < 1 || f.Field > c.Board.Length {
			return fmt.Errorf("poses: override for field %d outside board 1..%d", f.Field, c.Board.Length)
		}
	}
	if c.Poses.Layout.Speed <= 0 {
		return errors.New("poses: layout speed must be positive")
	}

	switch c.Robot.Driver {
	case DriverCherrybot:
		if c.Robot.BaseURL == "" {
			return errors.New("robot: base_url is required for the cherrybot driver")
		}
		if c.Robot.OperatorName == "" || c.Robot.OperatorEmail == "" {
			return errors.New("robot: operator_name and operator_email are required")
		}
	case DriverSimulator:
	default:
		return fmt.Errorf("robot: unknown driver %q (want %s or %s)", c.Robot.Driver, DriverCherrybot, DriverSimulator)
	}
	if c.Robot.RateLimit <= 0 {
		return errors.New("robot: rate_limit must be positive")
	}
	if c.Robot.DwellScale < 0 {
		return errors.New("robot: dwell_scale must not be negative")
	}

	switch c.Dice.Source {
	case DiceSourceDetector:
		if c.Dice.DetectorURL == "" {
			return errors.New("dice: detector_url is required for the detector source")
		}
		if c.Dice.Attempts < 1 {
			return errors.New("dice: attempts must be at least 1")
		}
	case DiceSourceFixed:
		if !validRoll(c.Dice.FixedValue) {
			return fmt.Errorf("dice: fixed_value %d outside 1..6", c.Dice.FixedValue)
		}
	case DiceSourceManual:
	default:
		return fmt.Errorf("dice: unknown source %q", c.Dice.Source)
	}

	switch c.Dice.Fallback {
	case FallbackDefault:
		if !validRoll(c.Dice.FallbackValue) {
			return fmt.Errorf("dice: fallback_value %d outside 1..6", c.Dice.FallbackValue)
		}
	case FallbackSkip, FallbackAbort:
	default:
		return fmt.Errorf("dice: unknown fallback policy %q", c.Dice.Fallback)
	}

	switch c.Collision.PostWarp {
	case PostWarpImmediate, PostWarpConfirm:
	default:
		return fmt.Errorf("collision: unknown post_warp policy %q", c.Collision.PostWarp)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return errors.New("nats: url is required when enabled")
	}
	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history: path is required when enabled")
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return errors.New("telemetry: endpoint is required when enabled")
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			return fmt.Errorf("telemetry: sample_rate must be between 0 and 1, got %f", c.Telemetry.SampleRate)
		}
	}

	return nil
}

// Validate checks the warp table invariants: every endpoint lies strictly
// inside the board, no source repeats, and no destination is itself a source.
func (b BoardConfig) Validate() error {
	if b.Length < 2 {
		return fmt.Errorf("length must be at least 2, got %d", b.Length)
	}
	sources := make(map[int]int, len(b.Warps))
	for _, w := range b.Warps {
		if w.From < 2 || w.From >= b.Length {
			return fmt.Errorf("warp source %d outside 2..%d", w.From, b.Length-1)
		}
		if w.To < 1 || w.To >= b.Length {
			return fmt.Errorf("warp %d has destination %d outside 1..%d", w.From, w.To, b.Length-1)
		}
		if w.From == w.To {
			return fmt.Errorf("warp %d points to itself", w.From)
		}
		if _, dup := sources[w.From]; dup {
			return fmt.Errorf("warp source %d declared twice", w.From)
		}
		sources[w.From] = w.To
	}
	for from, to := range sources {
		if _, chained := sources[to]; chained {
			return fmt.Errorf("warp %d -> %d lands on another warp source", from, to)
		}
	}
	return nil
}

// WarpMap returns the warp table as a map.
func (b BoardConfig) WarpMap() map[int]int {
	m := make(map[int]int, len(b.Warps))
	for _, w := range b.Warps {
		m[w.From] = w.To
	}
	return m
}

func validRoll(v int) bool {
	return v >= 1 && v <= 6
}
