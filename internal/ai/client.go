package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adreach/backend/internal/composer"
	"github.com/adreach/backend/internal/models"
	"github.com/adreach/backend/internal/stream"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Client talks to the generation upstream. One StreamChat call opens one
// SSE response that stays alive until the upstream finishes; the circuit
// breaker guards stream initiation only, never an open stream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *zap.Logger
}

func NewClient(baseURL string, headerTimeout time.Duration, log *zap.Logger) *Client {
	if headerTimeout <= 0 {
		headerTimeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No overall client timeout: the body is a long-lived stream. The
		// transport bounds how long the upstream may sit on the headers.
		httpClient: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: headerTimeout,
			},
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "ai-upstream",
			MaxRequests: 3,
			Timeout:     20 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
		}),
		log: log,
	}
}

type chatPayload struct {
	Message          string           `json:"message"`
	PreviousMessages []models.Message `json:"previousMessages"`
	InitialImage     string           `json:"initialImage,omitempty"`
}

// StreamChat opens one generation stream. The returned source yields decoded
// events until io.EOF; the caller owns closing it.
func (c *Client) StreamChat(ctx context.Context, req composer.ChatRequest) (composer.EventSource, error) {
	body, err := json.Marshal(chatPayload{
		Message:          req.Message,
		PreviousMessages: req.Previous,
		InitialImage:     req.InitialImage,
	})
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/api/ai/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	started := time.Now()
	res, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("ai upstream unavailable: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("ai upstream returned %d: %s", resp.StatusCode, string(b))
		}
		return resp, nil
	})
	if err != nil {
		c.log.Warn("ai stream initiation failed",
			zap.Error(err),
			zap.String("breaker_state", c.breaker.State().String()),
		)
		return nil, err
	}

	resp := res.(*http.Response)
	c.log.Debug("ai stream opened",
		zap.Duration("handshake", time.Since(started)),
		zap.Int("history_len", len(req.Previous)),
	)
	return &streamSource{
		body: resp.Body,
		dec:  stream.NewDecoder(resp.Body, c.log),
	}, nil
}

type streamSource struct {
	body io.ReadCloser
	dec  *stream.Decoder
}

func (s *streamSource) Next() (stream.Event, error) { return s.dec.Next() }

func (s *streamSource) Close() error { return s.body.Close() }
