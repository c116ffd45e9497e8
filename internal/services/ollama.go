package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MegaGrindStone/founder-web-ui/internal/models"
	"github.com/ollama/ollama/api"
)

// Ollama answers advisory requests with a model served by an Ollama instance.
type Ollama struct {
	host  string
	model string

	options map[string]any

	client *api.Client

	logger *slog.Logger
}

// DefaultOllamaHost is used when neither the configuration nor OLLAMA_HOST names a host.
const DefaultOllamaHost = "http://localhost:11434"

// NewOllama creates a new Ollama instance with the specified host URL and model name. Sampling options
// such as temperature are passed through to the model untouched.
func NewOllama(host, model string, options map[string]any, timeout time.Duration, logger *slog.Logger) (Ollama, error) {
	if host == "" {
		host = DefaultOllamaHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return Ollama{}, fmt.Errorf("error parsing host %q: %w", host, err)
	}
	if model == "" {
		return Ollama{}, errors.New("model is required")
	}

	return Ollama{
		host:    host,
		model:   model,
		options: options,
		client:  api.NewClient(u, &http.Client{Timeout: timeout}),
		logger:  logger.With(slog.String("module", "ollama")),
	}, nil
}

// Advise sends idea together with the system prompt of topic and returns the complete reply.
func (o Ollama) Advise(ctx context.Context, topic models.Topic, idea string) (string, error) {
	f := false
	req := api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{
				Role:    "system",
				Content: systemPrompt(topic),
			},
			{
				Role:    string(models.RoleUser),
				Content: idea,
			},
		},
		Stream:  &f,
		Options: o.options,
	}

	o.logger.Debug("Sending request", slog.String("topic", string(topic)), slog.String("model", o.model))

	var reply strings.Builder
	if err := o.client.Chat(ctx, &req, func(res api.ChatResponse) error {
		reply.WriteString(res.Message.Content)
		return nil
	}); err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	return reply.String(), nil
}
