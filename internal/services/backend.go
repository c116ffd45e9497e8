package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MegaGrindStone/founder-web-ui/internal/models"
)

// Backend is the advisory collaborator reached over HTTP. Every topic except pitch maps to one endpoint
// that accepts {"idea": ...} and answers with the result under a topic specific field.
type Backend struct {
	baseURL string

	client *http.Client

	logger *slog.Logger
}

type backendRoute struct {
	path  string
	field string
}

type backendRequest struct {
	Idea string `json:"idea"`
}

var (
	// ErrNoRoute is returned for topics the backend has no endpoint for.
	ErrNoRoute = errors.New("topic has no collaborator route")
	// ErrMalformedResponse is returned when the response body lacks the expected result.
	ErrMalformedResponse = errors.New("malformed collaborator response")
)

var backendRoutes = map[models.Topic]backendRoute{
	models.TopicIdeation: {path: "/validate-idea/", field: "validation_result"},
	models.TopicMarket:   {path: "/analyze-market/", field: "market_result"},
	models.TopicStrategy: {path: "/strategy/", field: "strategy_result"},
	models.TopicFunding:  {path: "/fund-distribution/", field: "funding_result"},
}

const (
	// DefaultBackendURL is where the advisory backend listens unless configured otherwise.
	DefaultBackendURL = "http://localhost:8000"

	errBodyLimit = 512
)

// NewBackend creates a Backend for the collaborator at baseURL. A zero timeout leaves requests
// unbounded.
func NewBackend(baseURL string, timeout time.Duration, logger *slog.Logger) Backend {
	if baseURL == "" {
		baseURL = DefaultBackendURL
	}
	return Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("module", "backend")),
	}
}

// Advise posts idea to the endpoint of topic and returns the raw result field. Transport failures,
// non-2xx statuses and bodies without a string result are all reported as errors.
func (b Backend) Advise(ctx context.Context, topic models.Topic, idea string) (string, error) {
	route, ok := backendRoutes[topic]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoRoute, topic)
	}

	jsonBody, err := json.Marshal(backendRequest{Idea: idea})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+route.path, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	b.logger.Debug("Sending request", slog.String("topic", string(topic)), slog.String("url", req.URL.String()))

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	raw, ok := fields[route.field]
	if !ok {
		return "", fmt.Errorf("%w: missing field %s", ErrMalformedResponse, route.field)
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	result, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %s is not a string", ErrMalformedResponse, route.field)
	}

	return result, nil
}
