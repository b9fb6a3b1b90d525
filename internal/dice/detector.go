package dice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/board"
	"go.uber.org/zap"
)

const detectorTimeout = 5 * time.Second

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the production Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type detectorResponse struct {
	Value *int `json:"value"`
}

// Detector polls the vision service, which answers GET requests with
// {"value": n} once it sees a settled die and {"value": null} or 204 while
// it does not.
type Detector struct {
	url        string
	attempts   int
	wait       time.Duration
	httpClient *http.Client
	sleep      Sleeper
	logger     *zap.Logger
}

// NewDetector creates a detector source that tries up to attempts times,
// pausing wait before each try.
func NewDetector(url string, attempts int, wait time.Duration, logger *zap.Logger) *Detector {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		url:        url,
		attempts:   attempts,
		wait:       wait,
		httpClient: &http.Client{Timeout: detectorTimeout},
		sleep:      ContextSleep,
		logger:     logger.Named("detector"),
	}
}

// WithSleeper replaces the wait between attempts.
func (d *Detector) WithSleeper(s Sleeper) *Detector {
	d.sleep = s
	return d
}

// Read returns the first valid roll seen within the configured attempts.
func (d *Detector) Read(ctx context.Context) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if err := d.sleep(ctx, d.wait); err != nil {
			return 0, err
		}
		v, err := d.readOnce(ctx)
		if err == nil {
			d.logger.Debug("dice detected", zap.Int("value", v), zap.Int("attempt", attempt))
			return v, nil
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		lastErr = err
		d.logger.Debug("no dice yet", zap.Int("attempt", attempt), zap.Error(err))
	}
	return 0, fmt.Errorf("%w after %d attempts: %v", ErrNoValue, d.attempts, lastErr)
}

func (d *Detector) readOnce(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("detector request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return 0, fmt.Errorf("no die in view")
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return 0, fmt.Errorf("detector status %d: %s", resp.StatusCode, b)
	}

	var out detectorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode detector response: %w", err)
	}
	if out.Value == nil {
		return 0, fmt.Errorf("no die in view")
	}
	if err := board.ValidateRoll(*out.Value); err != nil {
		return 0, err
	}
	return *out.Value, nil
}
