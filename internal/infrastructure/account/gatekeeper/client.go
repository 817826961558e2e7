package gatekeeper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bracketlab/tournament-platform/internal/domain/identity"
	"github.com/bracketlab/tournament-platform/internal/usecase"
)

// Client introspects access tokens against the gatekeeper account service
// and maps the response into an identity snapshot.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	logger        *slog.Logger
}

func NewClient(httpClient *http.Client, baseURL, introspectPath string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(baseURL, introspectPath),
		logger:        logger,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (*identity.Snapshot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	payload := introspectRequest{Token: token}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("create introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request introspection to gatekeeper: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read introspect response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "gatekeeper introspection non-200",
			"status_code", resp.StatusCode,
		)
		return nil, fmt.Errorf("gatekeeper introspection failed with status %d", resp.StatusCode)
	}

	var decoded introspectResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal introspect response: %w", err)
	}

	if !decoded.Active {
		return nil, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return nil, fmt.Errorf("invalid introspect response: user_id is empty")
	}

	snap := &identity.Snapshot{
		UserID:             decoded.UserID,
		SubscriptionPlan:   identity.NormalizePlan(decoded.SubscriptionPlan),
		SubscriptionStatus: identity.NormalizeStatus(decoded.SubscriptionStatus),
		Role:               strings.TrimSpace(decoded.Role),
	}
	if decoded.Branding != nil {
		snap.Branding = &identity.Branding{
			LogoURL:        decoded.Branding.LogoURL,
			PrimaryColor:   decoded.Branding.PrimaryColor,
			SecondaryColor: decoded.Branding.SecondaryColor,
			DisplayName:    decoded.Branding.DisplayName,
		}
	}
	return snap, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active             bool              `json:"active"`
	UserID             string            `json:"user_id"`
	SubscriptionPlan   string            `json:"subscription_plan"`
	SubscriptionStatus string            `json:"subscription_status"`
	Role               string            `json:"role"`
	Branding           *brandingResponse `json:"branding,omitempty"`
}

type brandingResponse struct {
	LogoURL        string `json:"logo_url"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	DisplayName    string `json:"display_name"`
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}
