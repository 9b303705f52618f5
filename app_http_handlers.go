package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"keymate/modelid"
	"keymate/provider"
)

// ErrUpstream marks failures talking to a provider
var ErrUpstream = errors.New("provider request failed")

func sessionID(c *gin.Context) string {
	if id := c.GetHeader(sessionHeader); id != "" {
		return id
	}
	// download links cannot set headers
	return c.Query("session_id")
}

// respondError maps an error to its status code and logs it
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()
	switch {
	case errors.Is(err, ErrSessionNotFound):
		status, message = http.StatusNotFound, "Session not found"
	case errors.Is(err, ErrNotValidated):
		status, message = http.StatusConflict, "Validate an API key first"
	case errors.Is(err, provider.ErrModelNotFound):
		status = http.StatusNotFound
	case errors.Is(err, provider.ErrUnknownProvider):
		status = http.StatusBadRequest
	case errors.Is(err, ErrUpstream):
		status = http.StatusBadGateway
	}
	log.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(status, gin.H{"error": message})
}

func featureDisabled(c *gin.Context, feature string) {
	c.JSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("%s is disabled in settings", feature)})
}

// notify adds a dashboard notification when notifications are enabled
func (app *App) notify(id, level, message string) {
	if !currentSettings().Features.EnableNotifications {
		return
	}
	if err := app.Sessions.Notify(id, level, message); err != nil {
		log.Debugf("Could not add notification: %v", err)
	}
}

// createSessionHandler handles the POST /api/session endpoint
func (app *App) createSessionHandler(c *gin.Context) {
	view := app.Sessions.Create()
	c.JSON(http.StatusCreated, SessionResponse{Session: view, Metrics: dashboardMetrics(view)})
}

// getSessionHandler handles the GET /api/session endpoint
func (app *App) getSessionHandler(c *gin.Context) {
	view, err := app.Sessions.Get(sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if !currentSettings().ShowRawJSON {
		view.RawJSON = nil
	}
	c.JSON(http.StatusOK, SessionResponse{Session: view, Metrics: dashboardMetrics(view)})
}

func isAutoProvider(id string) bool {
	id = strings.TrimSpace(id)
	return id == "" || strings.EqualFold(id, "auto")
}

// validateHandler handles the POST /api/validate endpoint.
// Invalid keys are a 200 with valid=false; only transport to this server can fail.
func (app *App) validateHandler(c *gin.Context) {
	id := sessionID(c)

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request payload: %v", err)})
		return
	}
	req.APIKey = strings.TrimSpace(req.APIKey)

	providerID := ""
	if !isAutoProvider(req.Provider) {
		canonical, ok := provider.Lookup(req.Provider)
		if !ok {
			respondError(c, fmt.Errorf("%w: %s", provider.ErrUnknownProvider, req.Provider))
			return
		}
		providerID = canonical
	}

	changed, err := app.Sessions.SetKey(id, req.APIKey, providerID)
	if err != nil {
		respondError(c, err)
		return
	}
	if changed {
		app.notify(id, "info", "API key or provider changed, cached models cleared")
	}

	// one request timeout per candidate provider bounds the whole validation
	candidates := 1
	if providerID == "" {
		candidates = len(provider.DetectOrder(req.APIKey))
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), validationBudget(currentSettings(), candidates))
	defer cancel()
	resp := ValidateResponse{MaskedKey: provider.MaskKey(req.APIKey)}
	var result *provider.Result

	if providerID != "" {
		p, err := app.providers().Get(providerID)
		if err != nil {
			respondError(c, err)
			return
		}
		result = provider.Validate(ctx, p, req.APIKey)
		resp.Attempts = []*provider.Result{result}
	} else {
		detection := provider.Detect(ctx, app.providers(), req.APIKey)
		resp.Attempts = detection.Attempts
		providerID = detection.Provider
		result = detection.Result
		if result == nil {
			result = &provider.Result{Status: provider.StatusInvalid, Message: detection.Message}
		}
	}

	if err := app.Sessions.RecordValidation(id, providerID, result); err != nil {
		respondError(c, err)
		return
	}

	if req.APIKey != "" {
		record := ValidationRecord{
			Provider:    providerID,
			Status:      string(result.Status),
			Message:     result.Message,
			StatusCode:  result.StatusCode,
			ModelCount:  len(result.Models),
			AccountType: result.AccountType,
			CreatedAt:   time.Now(),
		}
		if record.Provider == "" {
			record.Provider = "unknown"
		}
		if err := InsertValidation(app.Database, record); err != nil {
			log.Errorf("Failed to record validation history: %v", err)
		}
	}

	if result.Valid {
		app.notify(id, "success", result.Message)
	} else {
		app.notify(id, "error", result.Message)
	}

	view, err := app.Sessions.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp.Valid = result.Valid
	resp.Provider = providerID
	resp.ProviderBadge = provider.Badge(providerID)
	resp.Status = result.Status
	resp.Message = result.Message
	resp.StatusCode = result.StatusCode
	resp.AccountType = result.AccountType
	resp.ModelCount = len(result.Models)
	resp.Metrics = dashboardMetrics(view)
	if resp.Attempts == nil {
		resp.Attempts = []*provider.Result{}
	}
	c.JSON(http.StatusOK, resp)
}

func validationBudget(s Settings, candidates int) time.Duration {
	if candidates < 1 {
		candidates = 1
	}
	return time.Duration(s.Timeout*candidates) * time.Second
}

// loadModels returns the session with its model list, listing from the
// provider when nothing is cached, auto refresh is on, or force is set.
func (app *App) loadModels(ctx context.Context, id string, force bool) (SessionView, error) {
	apiKey, providerID, err := app.Sessions.Credentials(id)
	if err != nil {
		return SessionView{}, err
	}
	view, err := app.Sessions.Get(id)
	if err != nil {
		return SessionView{}, err
	}
	if !force && !currentSettings().AutoRefresh && len(view.models) > 0 {
		return view, nil
	}

	p, err := app.providers().Get(providerID)
	if err != nil {
		return SessionView{}, err
	}
	models, err := p.ListModels(ctx, apiKey)
	if err != nil {
		return SessionView{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if err := app.Sessions.SetModels(id, models); err != nil {
		return SessionView{}, err
	}
	return app.Sessions.Get(id)
}

// listModelsHandler handles the GET /api/models endpoint
func (app *App) listModelsHandler(c *gin.Context) {
	id := sessionID(c)

	var q TableQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid query: %v", err)})
		return
	}

	view, err := app.loadModels(c.Request.Context(), id, false)
	if err != nil {
		respondError(c, err)
		return
	}

	all := normalizeModels(view.Provider, view.models)
	rows := applyTableQuery(all, q)
	resp := ModelsResponse{
		Provider: view.Provider,
		Total:    len(all),
		Filtered: len(rows),
		Rows:     rows,
		Types:    modelid.Types,
		Metrics:  dashboardMetrics(view),
	}
	if currentSettings().Features.EnableAdvancedAnalysis {
		resp.AccountStatus = view.AccountStatus
		resp.Summary = view.Summary
	}
	c.JSON(http.StatusOK, resp)
}

// refreshModelsHandler handles the POST /api/models/refresh endpoint
func (app *App) refreshModelsHandler(c *gin.Context) {
	id := sessionID(c)

	if err := app.Sessions.Refresh(id); err != nil {
		respondError(c, err)
		return
	}
	view, err := app.loadModels(c.Request.Context(), id, true)
	if err != nil {
		respondError(c, err)
		return
	}

	app.notify(id, "success", fmt.Sprintf("Model list refreshed (%d models)", view.ModelCount))
	c.JSON(http.StatusOK, gin.H{
		"model_count": view.ModelCount,
		"metrics":     dashboardMetrics(view),
	})
}

// exportModelsHandler handles the GET /api/models/export endpoint
func (app *App) exportModelsHandler(c *gin.Context) {
	if !currentSettings().Features.EnableExportFunctionality {
		featureDisabled(c, "Export")
		return
	}

	var q TableQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid query: %v", err)})
		return
	}
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	if format != "csv" && format != "json" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or json"})
		return
	}

	view, err := app.loadModels(c.Request.Context(), sessionID(c), false)
	if err != nil {
		respondError(c, err)
		return
	}
	rows := applyTableQuery(normalizeModels(view.Provider, view.models), q)

	filename := fmt.Sprintf("%s-models.%s", view.Provider, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if format == "json" {
		c.JSON(http.StatusOK, rows)
		return
	}
	data, err := exportCSV(rows)
	if err != nil {
		respondError(c, fmt.Errorf("error writing CSV: %w", err))
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// getModelHandler handles the GET /api/models/:id endpoint
func (app *App) getModelHandler(c *gin.Context) {
	id := sessionID(c)
	modelID := strings.TrimSpace(c.Param("id"))
	if modelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Model id is required"})
		return
	}

	apiKey, providerID, err := app.Sessions.Credentials(id)
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := app.providers().Get(providerID)
	if err != nil {
		respondError(c, err)
		return
	}

	model, err := p.GetModel(c.Request.Context(), apiKey, modelID)
	if err != nil {
		if !errors.Is(err, provider.ErrModelNotFound) {
			err = fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		respondError(c, err)
		return
	}

	if err := app.Sessions.Select(id, model.ID, model.Raw); err != nil {
		respondError(c, err)
		return
	}
	view, err := app.Sessions.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	detail := *model
	if !currentSettings().ShowRawJSON {
		detail.Raw = nil
	}
	c.JSON(http.StatusOK, ModelDetailResponse{
		Model:   detail,
		Insight: modelid.Inspect(model.ID),
		Metrics: dashboardMetrics(view),
	})
}

// probeHandler handles the POST /api/probe endpoint
func (app *App) probeHandler(c *gin.Context) {
	if !currentSettings().Features.EnableProbe {
		featureDisabled(c, "Probe")
		return
	}
	id := sessionID(c)

	var req ProbeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request payload: %v", err)})
		return
	}

	apiKey, providerID, err := app.Sessions.Credentials(id)
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := app.providers().Get(providerID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := p.Probe(c.Request.Context(), apiKey, strings.TrimSpace(req.Model))
	if err != nil {
		respondError(c, fmt.Errorf("%w: %w", ErrUpstream, err))
		return
	}

	if result.OK {
		app.notify(id, "success", fmt.Sprintf("%s answered a probe", result.Model))
	} else {
		app.notify(id, "warning", fmt.Sprintf("Probe of %s failed: %s", result.Model, result.Error))
	}
	c.JSON(http.StatusOK, result)
}

func insightResponse(id string) InsightResponse {
	insight := modelid.Inspect(id)
	return InsightResponse{Insight: insight, ProviderBadge: provider.Badge(insight.Provider)}
}

// modelInsightHandler handles the GET /api/insights/:id endpoint
func modelInsightHandler(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Model id is required"})
		return
	}
	c.JSON(http.StatusOK, insightResponse(id))
}

// compareModelsHandler handles the GET /api/insights/compare endpoint
func compareModelsHandler(c *gin.Context) {
	if !currentSettings().Features.EnableModelComparison {
		featureDisabled(c, "Model comparison")
		return
	}
	a, b := strings.TrimSpace(c.Query("a")), strings.TrimSpace(c.Query("b"))
	if a == "" || b == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both a and b model ids are required"})
		return
	}
	c.JSON(http.StatusOK, modelid.Compare(a, b))
}

// quickPicksHandler handles the GET /api/insights/quick-picks endpoint
func quickPicksHandler(c *gin.Context) {
	picks := modelid.QuickPicks()
	insights := make([]InsightResponse, 0, len(picks))
	for _, id := range picks {
		insights = append(insights, insightResponse(id))
	}
	c.JSON(http.StatusOK, insights)
}

// providersHandler handles the GET /api/providers endpoint
func (app *App) providersHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": provider.Describe(providerConfig(currentSettings())),
		"demo_mode": demoMode,
	})
}

// notificationsHandler handles the GET /api/notifications endpoint
func (app *App) notificationsHandler(c *gin.Context) {
	notifications, err := app.Sessions.DrainNotifications(sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// historyHandler handles the GET /api/history endpoint
func (app *App) historyHandler(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	providerID := ""
	if raw := c.Query("provider"); raw != "" {
		canonical, ok := provider.Lookup(raw)
		if !ok {
			respondError(c, fmt.Errorf("%w: %s", provider.ErrUnknownProvider, raw))
			return
		}
		providerID = canonical
	}

	records, err := GetValidationHistory(app.Database, providerID, limit)
	if err != nil {
		respondError(c, fmt.Errorf("error fetching validation history: %w", err))
		return
	}
	c.JSON(http.StatusOK, records)
}

// getSettingsHandler handles the GET /api/settings endpoint
func getSettingsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, currentSettings())
}

// updateSettingsHandler handles the POST /api/settings endpoint
func (app *App) updateSettingsHandler(c *gin.Context) {
	var next Settings
	if err := c.ShouldBindJSON(&next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid settings: %v", err)})
		return
	}

	if err := replaceSettings(next); err != nil {
		respondError(c, fmt.Errorf("error saving settings: %w", err))
		return
	}
	if err := app.reloadProviders(); err != nil {
		respondError(c, err)
		return
	}
	app.limiter.configure(next.Security.MaxRequestsPerMinute)

	log.Info("Settings updated")
	c.JSON(http.StatusOK, currentSettings())
}

// reportHandler handles the GET /api/report endpoint. It renders cached state only.
func (app *App) reportHandler(c *gin.Context) {
	view, err := app.Sessions.Get(sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	data := reportData{
		GeneratedAt: time.Now(),
		Session:     view,
		Metrics:     dashboardMetrics(view),
		Rows:        applyTableQuery(normalizeModels(view.Provider, view.models), TableQuery{Sort: "name"}),
	}

	templateMutex.RLock()
	defer templateMutex.RUnlock()

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		respondError(c, fmt.Errorf("error rendering report: %w", err))
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}
