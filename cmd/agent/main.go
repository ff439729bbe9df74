package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/sethvargo/go-envconfig"

	agent "github.com/inference-gateway/instruct-agent/agent"
	api "github.com/inference-gateway/instruct-agent/api"
	middlewares "github.com/inference-gateway/instruct-agent/api/middlewares"
	config "github.com/inference-gateway/instruct-agent/config"
	l "github.com/inference-gateway/instruct-agent/logger"
	mcp "github.com/inference-gateway/instruct-agent/mcp"
	otel "github.com/inference-gateway/instruct-agent/otel"
	profiles "github.com/inference-gateway/instruct-agent/profiles"
	providers "github.com/inference-gateway/instruct-agent/providers"
)

func main() {
	var config config.Config
	cfg, err := config.Load(envconfig.OsLookuper())
	if err != nil {
		log.Printf("Config load error: %v", err)
		return
	}

	var logger l.Logger
	logger, err = l.NewLogger(cfg.Environment)
	if err != nil {
		log.Printf("Logger init error: %v", err)
		return
	}

	if cfg.Model.Token == "" {
		logger.Error("Model backend token is not configured, set MODEL_TOKEN or GITHUB_TOKEN", nil)
		return
	}

	servers, err := loadServers(cfg)
	if err != nil {
		logger.Error("Failed to load MCP servers", err, "file", cfg.MCP.ServersFile)
		return
	}

	// Initialize logger middleware
	loggerMiddleware, err := middlewares.NewLoggerMiddleware(logger)
	if err != nil {
		logger.Error("Failed to initialize logger middleware", err)
		return
	}

	// Initialize telemetry
	var telemetry otel.OpenTelemetry
	var telemetryMiddleware middlewares.Telemetry
	if cfg.EnableTelemetry {
		otelImpl := &otel.OpenTelemetryImpl{}
		if err := otelImpl.Init(cfg); err != nil {
			logger.Error("OpenTelemetry init error", err)
			return
		}
		telemetry = otelImpl

		telemetryMiddleware, err = middlewares.NewTelemetryMiddleware(telemetry, logger)
		if err != nil {
			logger.Error("Failed to initialize telemetry middleware", err)
			return
		}
	}

	// Initialize OIDC authenticator middleware
	oidcAuthenticator, err := middlewares.NewOIDCAuthenticatorMiddleware(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize OIDC authenticator", err)
		return
	}

	promptCache := profiles.NewMemoryCache()
	if cfg.Prompt.CacheRedisURL != "" {
		promptCache, err = profiles.NewRedisCacheFromURL(cfg.Prompt.CacheRedisURL)
		if err != nil {
			logger.Error("Failed to initialize prompt cache", err)
			return
		}
	}
	promptLoader := profiles.NewPromptLoader(promptCache, cfg.Prompt.CacheTTL, logger)
	profileService := profiles.NewService(profiles.ServiceConfig{
		GistID: cfg.Tools.GistID,
		APIURL: cfg.Tools.GithubAPIURL,
		Token:  cfg.Tools.GithubToken,
		TTL:    cfg.Tools.CacheTTL,
	}, promptLoader, logger)

	registry := mcp.NewRegistry(servers, mcp.NewClientFactory(mcp.ClientOptions{
		ProtocolVersion: cfg.MCP.ProtocolVersion,
		ClientInfo:      mcp.ClientInfo{Name: cfg.ApplicationName, Version: "1.0.0"},
		HTTPClient:      &http.Client{Timeout: cfg.MCP.ClientTimeout},
	}, logger), logger)

	modelClient := providers.NewClient(providers.ClientConfig{
		BaseURL: cfg.Model.Endpoint,
		Token:   cfg.Model.Token,
		Timeout: cfg.Model.Timeout,
	}, logger)

	instructAgent := agent.NewAgent(logger, registry, modelClient, telemetry)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	api := api.NewRouter(logger, registry, profileService, instructAgent)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(loggerMiddleware.Middleware())
	if cfg.EnableTelemetry {
		r.Use(telemetryMiddleware.Middleware())
		r.GET("/metrics", gin.WrapH(telemetry.Handler()))
	}
	r.GET("/health", api.HealthcheckHandler)

	authenticated := r.Group("/", oidcAuthenticator.Middleware())
	authenticated.POST("/instruct-agent", api.InstructAgentHandler)
	authenticated.GET("/mcp/servers", api.ListMCPServersHandler)
	authenticated.POST("/mcp/connect", api.ConnectMCPServerHandler)
	authenticated.POST("/mcp/call", api.CallMCPToolHandler)
	authenticated.GET("/tools", api.ListToolsHandler)
	authenticated.GET("/system-prompts/:tool", api.SystemPromptHandler)
	r.NoRoute(api.NotFoundHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Server.TLSCertPath != "" && cfg.Server.TLSKeyPath != "" {
		go func() {
			logger.Info("Starting instruct agent with TLS", "port", cfg.Server.Port, "servers", len(servers))

			if err := server.ListenAndServeTLS(cfg.Server.TLSCertPath, cfg.Server.TLSKeyPath); err != nil && err != http.ErrServerClosed {
				logger.Error("ListenAndServeTLS error", err)
			}
		}()
	} else {
		go func() {
			logger.Info("Starting instruct agent", "port", cfg.Server.Port, "servers", len(servers))

			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("ListenAndServe error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("Server Shutdown error", err)
	} else {
		logger.Info("Server gracefully stopped")
	}

	registry.Reset()
	if telemetry != nil {
		if err := telemetry.Shutdown(ctxShutdown); err != nil {
			logger.Error("Telemetry shutdown error", err)
		}
	}
}

func loadServers(cfg config.Config) ([]mcp.ServerConfig, error) {
	return config.LoadMCPServers(cfg.MCP.ServersFile)
}
