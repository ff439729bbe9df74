package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/inference-gateway/instruct-agent/mcp"
)

// ServersFile is the YAML layout of a tool server catalog
type ServersFile struct {
	Servers []mcp.ServerConfig `yaml:"servers" validate:"dive"`
}

// DefaultMCPServers is the catalog used when no catalog file is configured
func DefaultMCPServers() []mcp.ServerConfig {
	return []mcp.ServerConfig{
		{
			ID:          "microsoft-learn",
			Name:        "Microsoft Learn",
			Description: "Microsoft official docs and code samples search",
			Endpoint:    "https://learn.microsoft.com/api/mcp",
			Icon:        "M",
			Auth:        mcp.Auth{Type: mcp.AuthTypeNone},
		},
		{
			ID:          "web-fetch",
			Name:        "Web Fetch",
			Description: "Fetch a web page and convert to Markdown",
			Endpoint:    "https://remote.mcpservers.org/fetch/mcp",
			Icon:        "W",
			Auth:        mcp.Auth{Type: mcp.AuthTypeNone},
		},
		{
			ID:          "deepwiki",
			Name:        "DeepWiki",
			Description: "Deep wiki search and Q&A",
			Endpoint:    "https://mcp.deepwiki.com/mcp",
			Icon:        "D",
			Auth:        mcp.Auth{Type: mcp.AuthTypeNone},
		},
	}
}

// LoadMCPServers reads the tool server catalog. An empty path yields the
// built-in catalog.
func LoadMCPServers(path string) ([]mcp.ServerConfig, error) {
	if path == "" {
		return DefaultMCPServers(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read MCP servers file: %w", err)
	}

	return ParseMCPServers(data)
}

// ParseMCPServers decodes and validates a YAML catalog. Auth tokens are
// expanded from the environment.
func ParseMCPServers(data []byte) ([]mcp.ServerConfig, error) {
	var file ServersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse MCP servers file: %w", err)
	}

	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("invalid MCP servers file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Servers))
	for i := range file.Servers {
		server := &file.Servers[i]
		if _, ok := seen[server.ID]; ok {
			return nil, fmt.Errorf("invalid MCP servers file: duplicate server id %q", server.ID)
		}
		seen[server.ID] = struct{}{}

		if server.Auth.Type == "" {
			server.Auth.Type = mcp.AuthTypeNone
		}
		server.Auth.Token = os.ExpandEnv(server.Auth.Token)
	}

	return file.Servers, nil
}
