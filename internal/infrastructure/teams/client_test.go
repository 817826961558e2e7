package teams

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bracketlab/tournament-platform/internal/platform/logging"
	"github.com/bracketlab/tournament-platform/internal/platform/resilience"
	"github.com/bracketlab/tournament-platform/internal/usecase"
)

func newTestClient(srv *httptest.Server, breaker resilience.CircuitBreakerConfig) *Client {
	return NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		APIKey:         "teams-key",
		Timeout:        2 * time.Second,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
}

func TestClientLinkTeam_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/api/teams/team-9/link" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer teams-key" {
			t.Fatalf("unexpected authorization header: %s", got)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["link_token"] != "tok-abc" {
			t.Fatalf("unexpected link token: %s", req["link_token"])
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"team": map[string]string{"id": "team-9", "name": "Hawks"},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv, resilience.CircuitBreakerConfig{Enabled: false})

	linked, err := client.LinkTeam(context.Background(), "team-9", "tok-abc")
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if linked.ID != "team-9" || linked.Name != "Hawks" {
		t.Fatalf("unexpected linked team: %+v", linked)
	}
}

func TestClientLinkTeam_RejectionSurfacesMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "link token expired"},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv, resilience.CircuitBreakerConfig{Enabled: false})

	_, err := client.LinkTeam(context.Background(), "team-9", "tok-abc")
	if err == nil {
		t.Fatalf("expected rejection error")
	}
	// The collaborator's message passes through verbatim so the reconciler can
	// classify it.
	if !strings.Contains(err.Error(), "link token expired") {
		t.Fatalf("expected rejection message surfaced, got %v", err)
	}
}

func TestClientLinkTeam_ServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv, resilience.CircuitBreakerConfig{Enabled: false})

	_, err := client.LinkTeam(context.Background(), "team-9", "tok-abc")
	if !errors.Is(err, errTeamsTransient) {
		t.Fatalf("expected transient classification, got %v", err)
	}
}

func TestClientLinkTeam_CircuitOpensAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	for i := 0; i < 2; i++ {
		if _, err := client.LinkTeam(context.Background(), "team-9", "tok-abc"); err == nil {
			t.Fatalf("expected failure on call %d", i)
		}
	}

	_, err := client.LinkTeam(context.Background(), "team-9", "tok-abc")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open circuit rejection, got %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected no request once circuit opened, got %d hits", hits.Load())
	}
}

func TestClientLinkTeam_RejectionsDoNotTripCircuit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "owner mismatch"},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	for i := 0; i < 5; i++ {
		_, err := client.LinkTeam(context.Background(), "team-9", "tok-abc")
		if errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("rejections must not open the circuit (call %d)", i)
		}
	}
}

func TestClientLinkTeam_InputValidation(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{BaseURL: "http://localhost:0", Logger: logging.NewNop()})

	if _, err := client.LinkTeam(context.Background(), "  ", "tok"); err == nil {
		t.Fatalf("expected error for empty team id")
	}
	if _, err := client.LinkTeam(context.Background(), "team-9", "  "); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestBuildLinkCurlPreview_MasksSecrets(t *testing.T) {
	t.Parallel()

	preview := buildLinkCurlPreview("https://teams.example.com/api/teams/team-9/link", true)
	if strings.Contains(preview, "tok-") || strings.Contains(preview, "teams-key") {
		t.Fatalf("preview leaks secrets: %s", preview)
	}
	if !strings.Contains(preview, "Bearer ***") || !strings.Contains(preview, `"link_token":"***"`) {
		t.Fatalf("unexpected preview: %s", preview)
	}
}
