package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/janhq/money-coach/internal/config"
	"github.com/janhq/money-coach/internal/domain/chatsession"
	"github.com/janhq/money-coach/internal/domain/normalizer"
	"github.com/janhq/money-coach/internal/infrastructure/metrics"
	"github.com/janhq/money-coach/internal/utils/httpclients"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

// Failure kinds reported in error context and metrics.
const (
	FailureTimeout    = "timeout"
	FailureNetwork    = "network"
	FailureHTTPStatus = "http_status"
	FailureDecode     = "decode"
)

var sessionKeys = []string{"session_id", "sessionId", "conversation_id"}

type chatRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

// Client calls the external conversational AI service.
type Client struct {
	http          *resty.Client
	routingHeader string
	topics        *config.TopicRouting
	log           zerolog.Logger
}

var _ chatsession.AIClient = (*Client)(nil)

func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	client := httpclients.NewClient("ai-service", cfg.AITimeout)
	client.SetBaseURL(strings.TrimRight(cfg.AIBaseURL, "/"))
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Authorization", "Bearer "+cfg.AIAPIKey)
	// A failed turn is reported to the caller, who may retry.
	client.SetRetryCount(0)

	return &Client{
		http:          client,
		routingHeader: cfg.AIRoutingHeader,
		topics:        cfg.Topics,
		log:           log.With().Str("component", "ai_client").Logger(),
	}
}

// Chat sends one user message. Timeouts, transport errors, HTTP error statuses
// and unreadable bodies all come back as the same ErrorTypeExternal error.
func (c *Client) Chat(ctx context.Context, req chatsession.UpstreamRequest) (*chatsession.UpstreamReply, error) {
	chatType := string(req.ChatType)
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(c.routingHeader, c.topics.AppID(chatType)).
		SetBody(chatRequest{Text: req.Text, SessionID: req.SessionID}).
		Post("/chat")
	if err != nil {
		return nil, c.fail(ctx, chatType, classify(ctx, err), 0, err, start)
	}
	if resp.StatusCode() >= 400 {
		return nil, c.fail(ctx, chatType, FailureHTTPStatus, resp.StatusCode(), nil, start)
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Bytes(), &body); err != nil || body == nil {
		if err == nil {
			err = errors.New("empty response body")
		}
		return nil, c.fail(ctx, chatType, FailureDecode, resp.StatusCode(), err, start)
	}

	metrics.RecordUpstream(chatType, "", time.Since(start))

	outputs := body
	if nested, ok := body["outputs"].(map[string]any); ok {
		outputs = nested
	}

	return &chatsession.UpstreamReply{
		DisplayText: normalizer.ExtractText(outputs),
		SessionID:   firstString(body, outputs),
		RawOutputs:  outputs,
	}, nil
}

func (c *Client) fail(ctx context.Context, chatType, kind string, status int, cause error, start time.Time) error {
	metrics.RecordUpstream(chatType, kind, time.Since(start))

	fields := map[string]any{"failure_kind": kind, "chat_type": chatType}
	if status != 0 {
		fields["upstream_status"] = status
	}
	c.log.Warn().Err(cause).Str("failure_kind", kind).Int("upstream_status", status).Msg("AI service call failed")

	return platformerrors.NewErrorWithContext(
		ctx,
		platformerrors.LayerInfrastructure,
		platformerrors.ErrorTypeExternal,
		"upstream unavailable",
		cause,
		"6600b4e7-4d91-4923-af99-ceecd005dae2",
		fields,
	)
}

func classify(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureNetwork
}

func firstString(maps ...map[string]any) string {
	for _, m := range maps {
		for _, key := range sessionKeys {
			if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
