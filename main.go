package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"keymate/provider"
)

// Global Variables and Constants
var (

	// Logger
	log = logrus.New()

	// Environment Variables
	listenAddress     = os.Getenv("LISTEN_ADDRESS")
	logLevel          = strings.ToLower(os.Getenv("LOG_LEVEL"))
	demoModeEnv       = strings.ToLower(os.Getenv("DEMO_MODE"))
	dbPath            = os.Getenv("KEYMATE_DB_PATH")
	sessionTTLEnv     = os.Getenv("SESSION_TTL")
	requestTimeoutEnv = os.Getenv("REQUEST_TIMEOUT")
	providerBaseURLs  = map[string]string{
		"openai":    os.Getenv("OPENAI_BASE_URL"),
		"anthropic": os.Getenv("ANTHROPIC_BASE_URL"),
		"gemini":    os.Getenv("GEMINI_BASE_URL"),
		"deepseek":  os.Getenv("DEEPSEEK_BASE_URL"),
		"grok":      os.Getenv("GROK_BASE_URL"),
		"groq":      os.Getenv("GROQ_BASE_URL"),
	}

	// Parsed by validateEnvVars
	demoMode       bool
	sessionTTL     = 30 * time.Minute
	requestTimeout = 30

	// Templates
	reportTemplate *template.Template
	templateMutex  sync.RWMutex

	defaultReportTemplate = `KeyMate report - {{ .GeneratedAt | date "2006-01-02 15:04:05" }}
Provider: {{ .Metrics.ProviderBadge }}
Key:      {{ .Session.MaskedKey | default "(none)" }}
Status:   {{ .Metrics.APIStatus }}{{ with .Session.StatusMessage }} - {{ . }}{{ end }}
Models:   {{ .Metrics.TotalModels }}
Selected: {{ .Metrics.SelectedModel }}
{{- with .Session.AccountStatus }}
Account:  {{ .AccountType }}
{{- range $feature, $enabled := .Features }}
  {{ $feature }}: {{ ternary "yes" "no" $enabled }}
{{- end }}
{{- end }}
{{- with .Session.Summary }}

Categories:
{{- range .Categories }}
  {{ .Name | upper }}: {{ .Count }}
{{- end }}
  OTHER: {{ .OtherModels }}
{{- end }}
{{- if .Rows }}

{{ printf "%-40s %-12s %10s" "MODEL" "TYPE" "CONTEXT" }}
{{- range .Rows }}
{{ printf "%-40s %-12s %10s" (trunc 40 .ModelID) (toString .Type) (ternary (toString .ContextLength) "-" (gt .ContextLength 0)) }}
{{- end }}
{{- end }}
`
)

const (
	sessionHeader   = "X-Session-ID"
	templatesDir    = "templates"
	reportTemplName = "report.tmpl"
)

// App struct to hold dependencies
type App struct {
	Database *gorm.DB
	Sessions *SessionStore

	limiter *requestLimiter

	registryMu sync.RWMutex
	registry   provider.Registry
}

// NewApp wires the dependencies and builds the provider registry from the current settings
func NewApp(db *gorm.DB) (*App, error) {
	app := &App{
		Database: db,
		Sessions: NewSessionStore(),
		limiter:  newRequestLimiter(currentSettings().Security.MaxRequestsPerMinute),
	}
	if err := app.reloadProviders(); err != nil {
		return nil, err
	}
	return app, nil
}

func main() {
	// Validate Environment Variables
	validateEnvVars()

	// Initialize logrus logger
	initLogger()

	// Load settings and templates
	loadSettings()
	loadTemplates()

	// Initialize Database
	database := InitializeDB(dbPath)

	app, err := NewApp(database)
	if err != nil {
		log.Fatalf("Failed to create provider registry: %v", err)
	}
	if demoMode {
		log.Warn("DEMO_MODE is enabled, no provider will be contacted")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Expire idle sessions, and with them their keys
	StartSessionSweeper(ctx, app.Sessions, sessionTTL, defaultSweepInterval)

	srv := &http.Server{
		Addr:    listenAddress,
		Handler: app.setupRouter(),
	}

	go func() {
		<-ctx.Done()
		log.Infoln("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Server shutdown failed: %v", err)
		}
	}()

	log.Infof("Server started on %s", listenAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to run server: %v", err)
	}
}

// setupRouter registers every route on a fresh gin engine
func (app *App) setupRouter() *gin.Engine {
	router := gin.Default()
	// Gemini ids contain "/" and arrive escaped in path parameters
	router.UseRawPath = true

	limited := app.rateLimitMiddleware()

	api := router.Group("/api")
	{
		api.POST("/session", app.createSessionHandler)
		api.GET("/session", app.getSessionHandler)

		api.POST("/validate", limited, app.validateHandler)

		api.GET("/models", limited, app.listModelsHandler)
		api.POST("/models/refresh", limited, app.refreshModelsHandler)
		api.GET("/models/export", limited, app.exportModelsHandler)
		api.GET("/models/:id", limited, app.getModelHandler)

		api.POST("/probe", limited, app.probeHandler)

		api.GET("/insights/quick-picks", quickPicksHandler)
		api.GET("/insights/compare", compareModelsHandler)
		api.GET("/insights/:id", modelInsightHandler)

		api.GET("/providers", app.providersHandler)
		api.GET("/notifications", app.notificationsHandler)
		api.GET("/history", app.historyHandler)

		api.GET("/settings", getSettingsHandler)
		api.POST("/settings", app.updateSettingsHandler)

		api.GET("/report", app.reportHandler)
	}

	// Serve the embedded dashboard
	router.GET("/assets/*filepath", func(c *gin.Context) {
		serveEmbeddedFile(c, "assets", c.Param("filepath"))
	})
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		serveEmbeddedFile(c, "", "index.html")
	})

	return router
}

func initLogger() {
	switch logLevel {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
		if logLevel != "" {
			log.Fatalf("Invalid log level: '%s'.", logLevel)
		}
	}

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	provider.SetLogLevel(log.GetLevel())
}

// validateEnvVars applies defaults and parses the typed environment variables
func validateEnvVars() {
	if listenAddress == "" {
		listenAddress = ":8080"
	}

	if dbPath == "" {
		dbPath = filepath.Join("db", "keymate.db")
	}

	switch demoModeEnv {
	case "", "false", "0", "no":
		demoMode = false
	case "true", "1", "yes":
		demoMode = true
	default:
		log.Fatalf("Invalid DEMO_MODE value: '%s'. Use 'true' or 'false'.", demoModeEnv)
	}

	if sessionTTLEnv != "" {
		ttl, err := time.ParseDuration(sessionTTLEnv)
		if err != nil || ttl <= 0 {
			log.Fatalf("Invalid SESSION_TTL value: '%s'. Use a positive duration such as '30m'.", sessionTTLEnv)
		}
		sessionTTL = ttl
	}

	if requestTimeoutEnv != "" {
		seconds, err := strconv.Atoi(requestTimeoutEnv)
		if err != nil || seconds <= 0 {
			log.Fatalf("Invalid REQUEST_TIMEOUT value: '%s'. Use a positive number of seconds.", requestTimeoutEnv)
		}
		requestTimeout = seconds
	}

	for id, baseURL := range providerBaseURLs {
		if baseURL != "" && !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			log.Fatalf("Invalid base URL for %s: '%s'. It must start with http:// or https://.", id, baseURL)
		}
	}
}

// loadTemplates loads the report template from file or writes the default one
func loadTemplates() {
	templateMutex.Lock()
	defer templateMutex.Unlock()

	if err := os.MkdirAll(templatesDir, os.ModePerm); err != nil {
		log.Fatalf("Failed to create templates directory: %v", err)
	}

	reportTemplatePath := filepath.Join(templatesDir, reportTemplName)
	reportTemplateContent, err := os.ReadFile(reportTemplatePath)
	if err != nil {
		log.Errorf("Could not read %s, using default template: %v", reportTemplatePath, err)
		reportTemplateContent = []byte(defaultReportTemplate)
		if err := os.WriteFile(reportTemplatePath, reportTemplateContent, 0644); err != nil {
			log.Fatalf("Failed to write default report template to disk: %v", err)
		}
	}
	reportTemplate, err = parseReportTemplate(string(reportTemplateContent))
	if err != nil {
		log.Fatalf("Failed to parse report template: %v", err)
	}
}

func parseReportTemplate(content string) (*template.Template, error) {
	return template.New("report").Funcs(sprig.FuncMap()).Parse(content)
}

// providerConfig translates settings and environment into adapter configuration
func providerConfig(s Settings) provider.Config {
	baseURLs := make(map[string]string, len(providerBaseURLs))
	for id, u := range providerBaseURLs {
		if u != "" {
			baseURLs[id] = u
		}
	}
	config := provider.Config{
		BaseURLs:     baseURLs,
		Timeout:      time.Duration(s.Timeout) * time.Second,
		ProbeRetries: s.MaxRetries,
		Demo:         demoMode,
	}
	if s.Security.EnableRateLimiting {
		config.ProbeLimiter = provider.NewProbeLimiter(float64(s.Security.MaxRequestsPerMinute))
	}
	return config
}

// reloadProviders rebuilds every adapter, picking up timeout and probe retry changes
func (app *App) reloadProviders() error {
	registry, err := provider.NewRegistry(providerConfig(currentSettings()))
	if err != nil {
		return fmt.Errorf("error building provider registry: %w", err)
	}
	app.registryMu.Lock()
	app.registry = registry
	app.registryMu.Unlock()
	return nil
}

func (app *App) providers() provider.Registry {
	app.registryMu.RLock()
	defer app.registryMu.RUnlock()
	return app.registry
}
