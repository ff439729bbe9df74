package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the configuration for the instruct agent.
type Config struct {
	// General settings
	ApplicationName string `env:"APPLICATION_NAME, default=instruct-agent" description:"The name of the application"`
	Environment     string `env:"ENVIRONMENT, default=production" description:"The environment"`
	EnableTelemetry bool   `env:"ENABLE_TELEMETRY, default=false" description:"Enable telemetry"`
	EnableAuth      bool   `env:"ENABLE_AUTH, default=false" description:"Enable authentication"`

	// Auth settings
	OIDC *OIDC `env:", prefix=OIDC_" description:"OIDC configuration"`

	// Server settings
	Server *ServerConfig `env:", prefix=SERVER_" description:"Server configuration"`

	// Model backend settings
	Model *ModelConfig `env:", prefix=MODEL_" description:"Model backend configuration"`

	// Tool server settings
	MCP *MCPConfig `env:", prefix=MCP_" description:"Tool server configuration"`

	// Tool profile settings
	Tools *ToolsConfig `env:", prefix=TOOLS_" description:"Tool profile configuration"`

	// System prompt cache settings
	Prompt *PromptConfig `env:", prefix=PROMPT_" description:"System prompt cache configuration"`

	// Shared fallback token for the model backend and the gist API
	GithubToken string `env:"GITHUB_TOKEN" type:"secret" description:"Fallback GitHub token"`
}

// OIDC configuration
type OIDC struct {
	IssuerURL    string `env:"ISSUER_URL, default=http://keycloak:8080/realms/instruct-agent-realm" description:"OIDC issuer URL"`
	ClientID     string `env:"CLIENT_ID, default=instruct-agent-client" type:"secret" description:"OIDC client ID"`
	ClientSecret string `env:"CLIENT_SECRET" type:"secret" description:"OIDC client secret"`
}

// Server configuration
type ServerConfig struct {
	Host         string        `env:"HOST, default=0.0.0.0" description:"Server host"`
	Port         string        `env:"PORT, default=8080" description:"Server port"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=30s" description:"Read timeout"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=120s" description:"Write timeout"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT, default=120s" description:"Idle timeout"`
	TLSCertPath  string        `env:"TLS_CERT_PATH" description:"TLS certificate path"`
	TLSKeyPath   string        `env:"TLS_KEY_PATH" description:"TLS key path"`
}

// Model backend configuration
type ModelConfig struct {
	Endpoint string        `env:"ENDPOINT, default=https://models.github.ai/inference" description:"OpenAI-compatible base URL"`
	Token    string        `env:"TOKEN" type:"secret" description:"Model backend token"`
	Timeout  time.Duration `env:"TIMEOUT, default=120s" description:"Model request timeout"`
}

// Tool server configuration
type MCPConfig struct {
	ServersFile     string        `env:"SERVERS_FILE" description:"Path to the YAML tool server catalog"`
	ClientTimeout   time.Duration `env:"CLIENT_TIMEOUT, default=60s" description:"Tool server request timeout"`
	ProtocolVersion string        `env:"PROTOCOL_VERSION, default=2024-11-05" description:"Declared protocol version"`
}

// Tool profile configuration
type ToolsConfig struct {
	GistID       string        `env:"GIST_ID, default=614481beb4d227eeebfd4497fe504c71" description:"Gist holding the tool profiles"`
	GithubAPIURL string        `env:"GITHUB_API_URL, default=https://api.github.com" description:"GitHub API base URL"`
	GithubToken  string        `env:"GITHUB_TOKEN" type:"secret" description:"GitHub token for the gist API"`
	CacheTTL     time.Duration `env:"CACHE_TTL, default=5m" description:"Tool profile cache TTL"`
}

// System prompt cache configuration
type PromptConfig struct {
	CacheTTL      time.Duration `env:"CACHE_TTL, default=5m" description:"System prompt cache TTL"`
	CacheRedisURL string        `env:"CACHE_REDIS_URL" type:"secret" description:"Redis URL for a shared system prompt cache"`
}

// Load configuration
func (cfg *Config) Load(lookuper envconfig.Lookuper) (Config, error) {
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, err
	}

	if cfg.Model.Token == "" {
		cfg.Model.Token = cfg.GithubToken
	}
	if cfg.Tools.GithubToken == "" {
		cfg.Tools.GithubToken = cfg.GithubToken
	}

	return *cfg, nil
}

// IsDevelopment reports whether debug logging should be enabled
func (cfg *Config) IsDevelopment() bool {
	return cfg.Environment == "development"
}
