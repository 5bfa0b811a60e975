// Package gateway is the HTTP client for the remote task tracker's
// task-completion endpoint.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/xolan/worktime/internal/reconcile"
	"github.com/xolan/worktime/internal/worklog"
)

// TimestampLayout is the local timestamp format the tracker expects.
const TimestampLayout = "2006-01-02 15:04:05"

// Client reports allocations to the tracker.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a Client. timeout of zero means 15 seconds.
func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "task-gateway").Logger(),
	}
}

type completionPayload struct {
	Consumed float64 `json:"consumed"`
	Started  string  `json:"started"`
	Finished string  `json:"finished"`
	Comment  string  `json:"comment"`
}

type completionReply struct {
	Consumed decimal.Decimal `json:"consumed"`
	Status   string          `json:"status"`
}

// Complete implements reconcile.Gateway. Every failure wraps reconcile.ErrGateway.
func (c *Client) Complete(ctx context.Context, req reconcile.CompletionRequest) (reconcile.CompletionResponse, error) {
	body, err := json.Marshal(completionPayload{
		Consumed: req.HoursConsumed.InexactFloat64(),
		Started:  req.StartTime.Format(TimestampLayout),
		Finished: req.EndTime.Format(TimestampLayout),
		Comment:  req.Comment,
	})
	if err != nil {
		return reconcile.CompletionResponse{}, fmt.Errorf("%w: failed to encode request: %w", reconcile.ErrGateway, err)
	}

	url := fmt.Sprintf("%s/tasks/%d/consume", c.baseURL, req.TaskID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return reconcile.CompletionResponse{}, fmt.Errorf("%w: failed to build request: %w", reconcile.ErrGateway, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debug().Str("url", url).Int64("task_id", req.TaskID).Msg("Reporting allocation")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return reconcile.CompletionResponse{}, fmt.Errorf("%w: request failed: %w", reconcile.ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return reconcile.CompletionResponse{}, fmt.Errorf("%w: task %d: status %d: %s",
			reconcile.ErrGateway, req.TaskID, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var reply completionReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return reconcile.CompletionResponse{}, fmt.Errorf("%w: failed to parse response: %w", reconcile.ErrGateway, err)
	}

	status, err := worklog.ParseStatus(reply.Status)
	if err != nil {
		return reconcile.CompletionResponse{}, fmt.Errorf("%w: %w", reconcile.ErrGateway, err)
	}

	return reconcile.CompletionResponse{
		CumulativeConsumed: reply.Consumed,
		Status:             status,
	}, nil
}
