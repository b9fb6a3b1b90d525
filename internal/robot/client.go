package robot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/fyrsmithlabs/snakebot/internal/logging"
	"github.com/fyrsmithlabs/snakebot/internal/pose"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 10 * time.Second
	defaultBurst   = 1
	maxErrorBody   = 512
)

type coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type rotation struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

type tcpState struct {
	Coordinate coordinate `json:"coordinate"`
	Rotation   rotation   `json:"rotation"`
}

type targetRequest struct {
	Target tcpState `json:"target"`
	Speed  int      `json:"speed"`
}

type gripperBody struct {
	Value int `json:"value"`
}

type operatorBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

// Client talks to the cherrybot REST API. Every request waits on a shared
// rate limiter; the operator token is sent in the Authentication header.
type Client struct {
	baseURL    string
	name       string
	email      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
}

var _ Driver = (*Client)(nil)

// NewClient creates a cherrybot client. No request is made until Connect.
func NewClient(cfg config.RobotConfig, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("cherrybot base URL required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		name:       cfg.OperatorName,
		email:      cfg.OperatorEmail,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, defaultBurst),
		logger:     logger.Named("cherrybot"),
	}, nil
}

// Connect evicts any operator currently holding the arm, registers this
// client, initializes the arm and moves it home.
func (c *Client) Connect(ctx context.Context, home pose.Pose) error {
	current, err := c.currentOperator(ctx)
	if err != nil {
		return err
	}
	if current != nil {
		c.logger.Info("removing registered operator", zap.String("operator", current.Name))
		if err := c.deleteOperator(ctx, current.Token); err != nil {
			return err
		}
	}

	token, err := c.register(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.logger.Info("operator registered",
		zap.String("operator", c.name),
		logging.RedactedString("operator_token", token))

	if err := c.do(ctx, "initialize", http.MethodPut, "/initialize", nil, nil); err != nil {
		return err
	}
	return c.MoveTo(ctx, home)
}

// Close deletes the operator registration. Safe to call more than once.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.mu.Unlock()
	if token == "" {
		return nil
	}
	return c.deleteOperator(ctx, token)
}

// MoveTo sets the TCP target.
func (c *Client) MoveTo(ctx context.Context, p pose.Pose) error {
	body := targetRequest{
		Target: tcpState{
			Coordinate: coordinate{X: p.X, Y: p.Y, Z: p.Z},
			Rotation:   rotation{Roll: p.Roll, Pitch: p.Pitch, Yaw: p.Yaw},
		},
		Speed: p.Speed,
	}
	c.logger.Debug("move", zap.Stringer("pose", p), zap.Int("speed", p.Speed))
	return c.do(ctx, "move", http.MethodPut, "/tcp/target", body, nil)
}

// SetGripper sets the gripper opening.
func (c *Client) SetGripper(ctx context.Context, value int) error {
	c.logger.Debug("gripper", zap.Int("value", value))
	return c.do(ctx, "gripper", http.MethodPut, "/gripper", gripperBody{Value: value}, nil)
}

// Gripper reads the current gripper opening.
func (c *Client) Gripper(ctx context.Context) (int, error) {
	var out gripperBody
	if err := c.do(ctx, "read gripper", http.MethodGet, "/gripper", nil, &out); err != nil {
		return 0, err
	}
	return out.Value, nil
}

// TCP reads the arm's current tool center point.
func (c *Client) TCP(ctx context.Context) (pose.Pose, error) {
	return c.readPose(ctx, "read tcp", "/tcp")
}

// Target reads the arm's current TCP target.
func (c *Client) Target(ctx context.Context) (pose.Pose, error) {
	return c.readPose(ctx, "read target", "/tcp/target")
}

func (c *Client) readPose(ctx context.Context, op, p string) (pose.Pose, error) {
	var st tcpState
	if err := c.do(ctx, op, http.MethodGet, p, nil, &st); err != nil {
		return pose.Pose{}, err
	}
	return pose.Pose{
		X: st.Coordinate.X, Y: st.Coordinate.Y, Z: st.Coordinate.Z,
		Roll: st.Rotation.Roll, Pitch: st.Rotation.Pitch, Yaw: st.Rotation.Yaw,
	}, nil
}

// currentOperator returns nil when nobody holds the arm (204).
func (c *Client) currentOperator(ctx context.Context) (*operatorBody, error) {
	var op operatorBody
	resp, err := c.send(ctx, "get operator", http.MethodGet, "/operator", nil, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
			return nil, fmt.Errorf("robot get operator: decode: %w", err)
		}
		return &op, nil
	default:
		return nil, statusError("get operator", resp)
	}
}

func (c *Client) register(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, "register", http.MethodPost, "/operator", operatorBody{Name: c.name, Email: c.email}, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", statusError("register", resp)
	}
	location := resp.Header.Get("Location")
	token := path.Base(strings.TrimRight(location, "/"))
	if location == "" || token == "." || token == "/" {
		return "", fmt.Errorf("robot register: missing Location header")
	}
	return token, nil
}

func (c *Client) deleteOperator(ctx context.Context, token string) error {
	resp, err := c.send(ctx, "delete operator", http.MethodDelete, "/operator/"+token, nil, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError("delete operator", resp)
	}
	return nil
}

// do sends an authenticated request, requires 200 and decodes into out when
// non-nil.
func (c *Client) do(ctx context.Context, op, method, p string, in, out any) error {
	resp, err := c.send(ctx, op, method, p, in, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("robot %s: decode: %w", op, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, method, p string, in any, auth bool) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("robot %s: rate limiter: %w", op, err)
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("robot %s: marshal: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+p, body)
	if err != nil {
		return nil, fmt.Errorf("robot %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		c.mu.RLock()
		token := c.token
		c.mu.RUnlock()
		if token == "" {
			return nil, fmt.Errorf("robot %s: %w", op, ErrNotConnected)
		}
		req.Header.Set("Authentication", token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("robot %s: %w", op, err)
	}
	c.logger.Log(logging.TraceLevel, "robot request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", p),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))
	return resp, nil
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
