// Package config loads the generated client configuration ("exports"
// artifact) that describes the hosted GraphQL API.
//
// The artifact is looked up from, in order:
//   - the path passed to Load (the --config flag),
//   - the CLOUDTODO_CONFIG environment variable,
//   - ./cloudtodo-exports.json.
//
// A .env file in the working directory is loaded first if present, so
// CLOUDTODO_* variables can live there. CLOUDTODO_ENDPOINT and
// CLOUDTODO_API_KEY override the corresponding artifact fields.
//
// The result is a plain value handed to whoever needs it; nothing here is
// process-global.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFileName = "cloudtodo-exports.json"

	ConfigEnv   = "CLOUDTODO_CONFIG"
	EndpointEnv = "CLOUDTODO_ENDPOINT"
	APIKeyEnv   = "CLOUDTODO_API_KEY"

	defaultTimeout = 30 * time.Second
)

// AuthType selects how requests are authorized.
type AuthType string

const (
	AuthAPIKey    AuthType = "API_KEY"
	AuthUserPools AuthType = "AMAZON_COGNITO_USER_POOLS"
)

var ErrNoEndpoint = errors.New("graphql endpoint is not configured")

// Config mirrors the keys of the generated exports file.
type Config struct {
	ProjectRegion    string   `json:"aws_project_region" yaml:"aws_project_region"`
	GraphQLEndpoint  string   `json:"aws_appsync_graphqlEndpoint" yaml:"aws_appsync_graphqlEndpoint"`
	Region           string   `json:"aws_appsync_region" yaml:"aws_appsync_region"`
	AuthType         AuthType `json:"aws_appsync_authenticationType" yaml:"aws_appsync_authenticationType"`
	APIKey           string   `json:"aws_appsync_apiKey" yaml:"aws_appsync_apiKey"`
	RequestTimeoutMS *int     `json:"request_timeout_ms" yaml:"request_timeout_ms"`

	// Source is the file the values came from.
	Source string `json:"-" yaml:"-"`
}

// RequestTimeout is the HTTP client timeout; zero disables it.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutMS == nil {
		return defaultTimeout
	}
	if *c.RequestTimeoutMS <= 0 {
		return 0
	}
	return time.Duration(*c.RequestTimeoutMS) * time.Millisecond
}

// Load reads, overrides and validates the configuration.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	path = resolvePath(path)
	cfg, err := readFile(path)
	if err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func resolvePath(path string) string {
	if p := strings.TrimSpace(path); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(ConfigEnv)); p != "" {
		return p
	}
	return DefaultFileName
}

func readFile(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// env vars alone may be enough
			if os.Getenv(EndpointEnv) != "" {
				return cfg, nil
			}
			return cfg, fmt.Errorf("config %s not found (set --config or %s)", path, ConfigEnv)
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(b), &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.Source = path
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EndpointEnv)); v != "" {
		cfg.GraphQLEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv(APIKeyEnv)); v != "" {
		cfg.APIKey = v
	}
}

func applyDefaults(cfg *Config) {
	cfg.AuthType = AuthType(strings.ToUpper(strings.TrimSpace(string(cfg.AuthType))))
	if cfg.AuthType == "" {
		if cfg.APIKey != "" {
			cfg.AuthType = AuthAPIKey
		} else {
			cfg.AuthType = AuthUserPools
		}
	}
	if cfg.Region == "" {
		cfg.Region = cfg.ProjectRegion
	}
}

// Validate checks the fields the client cannot work without.
func (c Config) Validate() error {
	if c.GraphQLEndpoint == "" {
		return ErrNoEndpoint
	}
	u, err := url.Parse(c.GraphQLEndpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid graphql endpoint %q", c.GraphQLEndpoint)
	}
	switch c.AuthType {
	case AuthAPIKey:
		if c.APIKey == "" {
			return fmt.Errorf("authentication type %s requires an api key", c.AuthType)
		}
	case AuthUserPools:
	default:
		return fmt.Errorf("unsupported authentication type %q", c.AuthType)
	}
	return nil
}
