package services

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

	"github.com/MegaGrindStone/founder-web-ui/internal/models"
)

// News fetches the startup news list from the news collaborator.
type News struct {
	baseURL string
	source  string

	client *http.Client

	logger *slog.Logger
}

type newsResponse struct {
	News []models.Article `json:"news"`
}

const (
	// DefaultNewsURL is where the news collaborator listens unless configured otherwise.
	DefaultNewsURL = "http://localhost:8001"
	// DefaultNewsSource is the feed requested when neither the caller nor the configuration names one.
	DefaultNewsSource = "Inc42"
)

// NewNews creates a News client for the collaborator at baseURL, requesting source by default.
func NewNews(baseURL, source string, timeout time.Duration, logger *slog.Logger) News {
	if baseURL == "" {
		baseURL = DefaultNewsURL
	}
	if source == "" {
		source = DefaultNewsSource
	}
	return News{
		baseURL: strings.TrimRight(baseURL, "/"),
		source:  source,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("module", "news")),
	}
}

// Articles returns the articles of source, or of the default source if source is empty.
func (n News) Articles(ctx context.Context, source string) ([]models.Article, error) {
	if source == "" {
		source = n.source
	}

	u := n.baseURL + "/news/?source=" + url.QueryEscape(source)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var res newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	n.logger.Debug("Fetched news", slog.String("source", source), slog.Int("count", len(res.News)))

	return res.News, nil
}
