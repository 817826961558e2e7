// Package teams is the HTTP client for the teams collaborator service. The
// only call the access layer makes is the single-use link claim.
package teams

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bracketlab/tournament-platform/internal/platform/logging"
	"github.com/bracketlab/tournament-platform/internal/platform/resilience"
	"github.com/bracketlab/tournament-platform/internal/usecase"
)

var errTeamsTransient = crerr.New("teams service transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:         strings.TrimSpace(cfg.APIKey),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type linkRequest struct {
	LinkToken string `json:"link_token"`
}

type linkResponse struct {
	Team struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// LinkTeam submits the claim token for one team. The token is single-use on
// the collaborator side, so callers must treat any outcome as terminal.
func (c *Client) LinkTeam(ctx context.Context, teamID, linkToken string) (usecase.LinkedTeam, error) {
	teamID = strings.TrimSpace(teamID)
	linkToken = strings.TrimSpace(linkToken)
	if teamID == "" {
		return usecase.LinkedTeam{}, crerr.New("team id is required")
	}
	if linkToken == "" {
		return usecase.LinkedTeam{}, crerr.New("link token is required")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "teams circuit breaker rejected request", "state", c.breaker.State())
			return usecase.LinkedTeam{}, fmt.Errorf("%w: teams service is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := fmt.Sprintf("%s/api/teams/%s/link", c.baseURL, teamID)
	body, err := sonic.Marshal(linkRequest{LinkToken: linkToken})
	if err != nil {
		return usecase.LinkedTeam{}, crerr.Wrap(err, "marshal link request")
	}

	curlPreview := buildLinkCurlPreview(fullURL, c.apiKey != "")
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("teams.link_url", fullURL),
			attribute.String("teams.team_id", teamID),
			attribute.String("teams.request_curl_preview", curlPreview),
		)
	}
	c.logger.InfoContext(ctx, "teams link request", "team_id", teamID, "url", fullURL, "curl_preview", curlPreview)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, strings.NewReader(string(body)))
	if err != nil {
		return usecase.LinkedTeam{}, crerr.Wrap(err, "create link request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	linked, err := c.execute(ctx, req)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errTeamsTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return linked, err
}

func (c *Client) execute(ctx context.Context, req *http.Request) (usecase.LinkedTeam, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return usecase.LinkedTeam{}, crerr.Wrap(errTeamsTransient, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return usecase.LinkedTeam{}, crerr.Wrap(errTeamsTransient, "read response body")
	}

	var decoded linkResponse
	if len(raw) > 0 {
		if err := sonic.Unmarshal(raw, &decoded); err != nil {
			c.logger.WarnContext(ctx, "teams link response not decodable", "status_code", resp.StatusCode)
		}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if strings.TrimSpace(decoded.Team.ID) == "" {
			return usecase.LinkedTeam{}, crerr.New("invalid link response: team id is empty")
		}
		return usecase.LinkedTeam{ID: decoded.Team.ID, Name: decoded.Team.Name}, nil

	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return usecase.LinkedTeam{}, crerr.Wrapf(errTeamsTransient, "teams status=%d", resp.StatusCode)

	default:
		// Rejections carry the collaborator's reason; the reconciler keys its
		// security classification off this message.
		message := strings.TrimSpace(decoded.Error.Message)
		if message == "" {
			message = fmt.Sprintf("link rejected with status %d", resp.StatusCode)
		}
		return usecase.LinkedTeam{}, crerr.New(message)
	}
}

func buildLinkCurlPreview(fullURL string, withAuth bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart("'" + fullURL + "'")
	appendPart("-H")
	appendPart("'Content-Type: application/json'")
	if withAuth {
		appendPart("-H")
		appendPart("'Authorization: Bearer ***'")
	}
	appendPart("-d")
	appendPart(`'{"link_token":"***"}'`)
	return buf.String()
}
