package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/feliciasalim/PPL/internal/pkg/metrics"
)

// DefaultAnalysis is returned when the service omits the analysis text.
const DefaultAnalysis = "Your text has been analyzed successfully."

// ErrTimeout means the analysis call exceeded the configured deadline.
var ErrTimeout = errors.New("ml: request timed out")

// ErrUnavailable means the service could not be reached (DNS or connection failure).
var ErrUnavailable = errors.New("ml: service unreachable")

// UpstreamError means the service answered with a non-200 status.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ml: upstream returned status %d", e.Status)
}

// Video is one recommended video attached to an analysis.
type Video struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Result is a fully-populated analysis. Normalization guarantees every
// field is usable: the score is clamped to [0,100] and missing sub-fields
// are replaced by defaults, so callers never need their own fallbacks.
type Result struct {
	StressLabel string
	StressScore float64
	Emotion     string
	Analysis    string
	Videos      []Video
}

// Client calls the external analysis service.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient builds a Client with a bounded per-call timeout.
func NewClient(endpoint, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	PredictedStress struct {
		Label string `json:"label"`
	} `json:"predicted_stress"`
	PredictedEmotion struct {
		Label string `json:"label"`
	} `json:"predicted_emotion"`
	StressLevel struct {
		StressLevel *float64 `json:"stress_level"`
	} `json:"stress_level"`
	Analysis          string `json:"analysis"`
	RecommendedVideos struct {
		Recommendations []Video `json:"recommendations"`
	} `json:"recommended_videos"`
}

// Analyze posts the text to the analysis service and returns a normalized
// result. The call is attempted exactly once; transport failures are
// classified into ErrTimeout / ErrUnavailable / *UpstreamError.
func (c *Client) Analyze(ctx context.Context, text string) (*Result, error) {
	payload, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		classified := classifyTransportError(err)
		metrics.ObserveMLCall(outcomeLabel(classified), time.Since(start).Seconds())
		if c.logger != nil {
			c.logger.Warn("analysis call failed", slog.String("error", err.Error()))
		}
		return nil, classified
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		metrics.ObserveMLCall("upstream_error", time.Since(start).Seconds())
		return nil, &UpstreamError{Status: resp.StatusCode}
	}

	var raw analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		metrics.ObserveMLCall("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("decode response: %w", err)
	}

	metrics.ObserveMLCall("ok", time.Since(start).Seconds())
	return normalize(&raw), nil
}

// normalize fills fallback defaults so the result shape is always complete.
func normalize(raw *analyzeResponse) *Result {
	score := 50.0
	if raw.StressLevel.StressLevel != nil {
		score = *raw.StressLevel.StressLevel
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	emotion := raw.PredictedEmotion.Label
	if emotion == "" {
		emotion = "neutral"
	}

	label := raw.PredictedStress.Label
	if label == "" {
		label = labelForScore(score)
	}

	analysis := raw.Analysis
	if analysis == "" {
		analysis = DefaultAnalysis
	}

	videos := raw.RecommendedVideos.Recommendations
	if videos == nil {
		videos = []Video{}
	}

	return &Result{
		StressLabel: label,
		StressScore: score,
		Emotion:     emotion,
		Analysis:    analysis,
		Videos:      videos,
	}
}

func labelForScore(score float64) string {
	switch {
	case score <= 33:
		return "low"
	case score <= 66:
		return "medium"
	default:
		return "high"
	}
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrUnavailable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrUnavailable
	}
	return fmt.Errorf("ml: request failed: %w", err)
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
