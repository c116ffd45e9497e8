package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MegaGrindStone/founder-web-ui/internal/services"
	"github.com/MegaGrindStone/founder-web-ui/internal/session"
	"gopkg.in/yaml.v3"
)

type advisorConfig interface {
	advisor(logger *slog.Logger) (session.Advisor, error)
}

// BaseAdvisorConfig contains the common fields for all advisor configurations.
type BaseAdvisorConfig struct {
	Provider string        `yaml:"provider"`
	Timeout  time.Duration `yaml:"timeout"`
}

// timeout returns the configured request timeout, or defaultAdvisorTimeout when unset.
func (b BaseAdvisorConfig) timeout() time.Duration {
	if b.Timeout <= 0 {
		return defaultAdvisorTimeout
	}
	return b.Timeout
}

type config struct {
	Port     string        `yaml:"port"`
	LogLevel string        `yaml:"logLevel"`
	Advisor  advisorConfig `yaml:"advisor"`
	News     newsConfig    `yaml:"news"`
	Session  sessionConfig `yaml:"session"`
}

type newsConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Source  string        `yaml:"source"`
	Timeout time.Duration `yaml:"timeout"`
}

type sessionConfig struct {
	TipDelay      time.Duration `yaml:"tipDelay"`
	IdleTimeout   time.Duration `yaml:"idleTimeout"`
	EvictInterval time.Duration `yaml:"evictInterval"`
}

type httpAdvisorConfig struct {
	BaseAdvisorConfig `yaml:",inline"`
	BaseURL           string `yaml:"baseURL"`
}

type ollamaConfig struct {
	BaseAdvisorConfig `yaml:",inline"`
	Host              string         `yaml:"host"`
	Model             string         `yaml:"model"`
	Options           map[string]any `yaml:"options"`
}

type openAIConfig struct {
	BaseAdvisorConfig `yaml:",inline"`
	APIKey            string                 `yaml:"apiKey"`
	BaseURL           string                 `yaml:"baseURL"`
	Model             string                 `yaml:"model"`
	Parameters        services.LLMParameters `yaml:",inline"`
}

type openRouterConfig struct {
	BaseAdvisorConfig `yaml:",inline"`
	APIKey            string                 `yaml:"apiKey"`
	Model             string                 `yaml:"model"`
	Parameters        services.LLMParameters `yaml:",inline"`
}

type anthropicConfig struct {
	BaseAdvisorConfig `yaml:",inline"`
	APIKey            string  `yaml:"apiKey"`
	BaseURL           string  `yaml:"baseURL"`
	Model             string  `yaml:"model"`
	MaxTokens         int     `yaml:"maxTokens"`
	Temperature       float64 `yaml:"temperature"`
}

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultAdvisorTimeout = 5 * time.Minute
	defaultNewsTimeout    = 15 * time.Second
	defaultIdleTimeout    = 30 * time.Minute
	defaultEvictInterval  = time.Minute

	configDirName = "founderwebui"
)

func defaultConfigPath() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error getting user config dir: %w", err)
	}
	return filepath.Join(cfgDir, configDirName, "config.yaml"), nil
}

// loadConfig reads the configuration at path. A missing file yields the defaults, so the server runs
// against the local collaborators without any setup.
func loadConfig(path string) (config, error) {
	cfg := config{}

	cfgFile, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return config{}, fmt.Errorf("error opening config file: %w", err)
	default:
		defer cfgFile.Close()
		if err := yaml.NewDecoder(cfgFile).Decode(&cfg); err != nil {
			return config{}, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *config) applyDefaults() {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Advisor == nil {
		c.Advisor = &httpAdvisorConfig{}
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = services.DefaultNewsURL
	}
	if c.News.Source == "" {
		c.News.Source = services.DefaultNewsSource
	}
	if c.News.Timeout == 0 {
		c.News.Timeout = defaultNewsTimeout
	}
	if c.Session.TipDelay == 0 {
		c.Session.TipDelay = session.DefaultTipDelay
	}
	if c.Session.IdleTimeout == 0 {
		c.Session.IdleTimeout = defaultIdleTimeout
	}
	if c.Session.EvictInterval == 0 {
		c.Session.EvictInterval = defaultEvictInterval
	}
}

func (c config) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port     string         `yaml:"port"`
		LogLevel string         `yaml:"logLevel"`
		Advisor  map[string]any `yaml:"advisor"`
		News     newsConfig     `yaml:"news"`
		Session  sessionConfig  `yaml:"session"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Port = rawConfig.Port
	c.LogLevel = rawConfig.LogLevel
	c.News = rawConfig.News
	c.Session = rawConfig.Session

	if rawConfig.Advisor == nil {
		return nil
	}

	provider := "http"
	if p, ok := rawConfig.Advisor["provider"]; ok {
		s, ok := p.(string)
		if !ok {
			return fmt.Errorf("advisor provider must be a string")
		}
		provider = s
	}

	advisorRawYAML, err := yaml.Marshal(rawConfig.Advisor)
	if err != nil {
		return err
	}

	var advisor advisorConfig
	switch provider {
	case "http", "":
		advisor = &httpAdvisorConfig{}
	case "ollama":
		advisor = &ollamaConfig{}
	case "openai":
		advisor = &openAIConfig{}
	case "openrouter":
		advisor = &openRouterConfig{}
	case "anthropic":
		advisor = &anthropicConfig{}
	default:
		return fmt.Errorf("unknown advisor provider: %s", provider)
	}

	if err := yaml.Unmarshal(advisorRawYAML, advisor); err != nil {
		return err
	}

	c.Advisor = advisor

	return nil
}

func (h httpAdvisorConfig) advisor(logger *slog.Logger) (session.Advisor, error) {
	return services.NewBackend(h.BaseURL, h.timeout(), logger), nil
}

func (o ollamaConfig) advisor(logger *slog.Logger) (session.Advisor, error) {
	if o.Model == "" {
		return nil, errors.New("model is required")
	}

	host := o.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	return services.NewOllama(host, o.Model, o.Options, o.timeout(), logger)
}

func (o openAIConfig) advisor(logger *slog.Logger) (session.Advisor, error) {
	if o.Model == "" {
		return nil, errors.New("model is required")
	}

	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("apiKey is required")
	}
	return services.NewOpenAI(apiKey, o.BaseURL, o.Model, o.Parameters, o.timeout(), logger), nil
}

func (o openRouterConfig) advisor(logger *slog.Logger) (session.Advisor, error) {
	if o.Model == "" {
		return nil, errors.New("model is required")
	}

	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("apiKey is required")
	}
	return services.NewOpenAI(apiKey, services.OpenRouterBaseURL, o.Model, o.Parameters, o.timeout(), logger), nil
}

func (a anthropicConfig) advisor(logger *slog.Logger) (session.Advisor, error) {
	if a.Model == "" {
		return nil, errors.New("model is required")
	}

	apiKey := a.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("apiKey is required")
	}
	return services.NewAnthropic(apiKey, a.BaseURL, a.Model, a.MaxTokens, a.Temperature, a.timeout(), logger), nil
}
