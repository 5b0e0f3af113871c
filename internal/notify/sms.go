package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type SMSResult struct {
	MessageID string
	Status    string
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, text string) (SMSResult, error)
}

// GatewaySMS posts form-encoded messages to a Mobizon-compatible HTTP gateway.
type GatewaySMS struct {
	endpoint string
	apiKey   string
	sender   string
	dryRun   bool
	client   *http.Client
	logger   *slog.Logger
}

type GatewayOption func(*GatewaySMS)

func WithSender(sender string) GatewayOption {
	return func(g *GatewaySMS) { g.sender = sender }
}

func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *GatewaySMS) { g.client = c }
}

// WithDryRun logs messages instead of calling the gateway.
func WithDryRun(dryRun bool) GatewayOption {
	return func(g *GatewaySMS) { g.dryRun = dryRun }
}

func NewGatewaySMS(endpoint, apiKey string, logger *slog.Logger, opts ...GatewayOption) *GatewaySMS {
	g := &GatewaySMS{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	if endpoint == "" || apiKey == "" {
		g.dryRun = true
	}
	return g
}

type gatewayResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"messageId"`
		Status    int    `json:"status"`
	} `json:"data"`
}

func (g *GatewaySMS) SendSMS(ctx context.Context, to, text string) (SMSResult, error) {
	if g.dryRun {
		g.logger.InfoContext(ctx, "sms not sent (dry run)", "to", maskPhone(to), "length", len(text))
		return SMSResult{Status: "dry_run"}, nil
	}

	form := url.Values{
		"apiKey":    {g.apiKey},
		"recipient": {strings.TrimPrefix(to, "+")},
		"text":      {text},
	}
	if g.sender != "" {
		form.Set("from", g.sender)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SMSResult{}, fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return SMSResult{}, fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return SMSResult{}, fmt.Errorf("read sms gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return SMSResult{}, fmt.Errorf("sms gateway status %d", resp.StatusCode)
	}
	var out gatewayResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return SMSResult{}, fmt.Errorf("decode sms gateway response: %w", err)
	}
	if out.Code != 0 {
		return SMSResult{}, fmt.Errorf("sms gateway code %d: %s", out.Code, out.Message)
	}
	return SMSResult{MessageID: out.Data.MessageID, Status: "queued"}, nil
}

func maskPhone(p string) string {
	if len(p) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}
