package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Conceptual-Machines/lyricist-api/internal/history"
	"github.com/Conceptual-Machines/lyricist-api/internal/logger"
	"github.com/Conceptual-Machines/lyricist-api/internal/middleware"
	"github.com/Conceptual-Machines/lyricist-api/internal/models"
	"github.com/Conceptual-Machines/lyricist-api/internal/pipeline"
	"github.com/Conceptual-Machines/lyricist-api/internal/prompt"
	"github.com/gin-gonic/gin"
)

// RunStore persists pipeline run summaries
type RunStore interface {
	Create(ctx context.Context, run *models.PipelineRun) error
	List(ctx context.Context, userID string, limit int) ([]models.PipelineRun, error)
}

type LyricistHandler struct {
	orchestrator *pipeline.Orchestrator
	store        RunStore
}

// NewLyricistHandler creates the stage handlers. store may be nil when no
// database is configured.
func NewLyricistHandler(orchestrator *pipeline.Orchestrator, store RunStore) *LyricistHandler {
	return &LyricistHandler{orchestrator: orchestrator, store: store}
}

type PipelineRequest struct {
	pipeline.Request
	Debate   bool `json:"debate"`
	Separate bool `json:"separate"`
}

type SkillView struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Persona     bool   `json:"persona"`
	Instruction string `json:"instruction"`
}

// bindRequest decodes the body into target and validates req, which is target
// itself or embedded in it
func bindRequest(c *gin.Context, target any, req *pipeline.Request, needText bool) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		respondBadRequest(c, err)
		return false
	}
	if utf8.RuneCountInString(req.Text) > maxRequestTextLen {
		respondBadRequest(c, errTextTooLong)
		return false
	}
	if needText && strings.TrimSpace(req.Text) == "" {
		respondBadRequest(c, errMissingText)
		return false
	}
	return true
}

func bindDraftRequest(c *gin.Context, req *pipeline.Request) bool {
	if !bindRequest(c, req, req, false) {
		return false
	}
	if (req.Draft == nil || strings.TrimSpace(req.Draft.Lyrics) == "") && strings.TrimSpace(req.Text) == "" {
		respondBadRequest(c, errMissingDraft)
		return false
	}
	return true
}

// ActivateSkills reports which capabilities a request would activate and,
// with ?stage=, the payload that stage would send. No generation happens.
// POST /api/v1/skills/activate
func (h *LyricistHandler) ActivateSkills(c *gin.Context) {
	var req pipeline.Request
	if !bindRequest(c, &req, &req, false) {
		return
	}

	sc := req.SkillsContext()
	active := h.orchestrator.Registry().Activate(sc)
	views := make([]SkillView, 0, len(active))
	for _, s := range active {
		views = append(views, SkillView{ID: s.ID, Label: s.Label, Persona: s.Persona, Instruction: s.InstructionFor(sc)})
	}

	resp := gin.H{
		"skills":     views,
		"settings":   prompt.SettingsLines(req.Settings),
		"request_id": c.GetString("request_id"),
	}

	if name := c.Query("stage"); name != "" {
		stage, err := prompt.ParseStage(name)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		payload, err := h.orchestrator.Composer().Compose(stage, prompt.Input{
			Context:   sc,
			Strategy:  req.Strategy,
			Draft:     req.Draft,
			Consensus: req.Consensus,
		})
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		resp["payload"] = gin.H{
			"stage":             payload.Stage,
			"systemInstruction": payload.SystemInstruction,
			"text":              payload.Text(),
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Strategy handles POST /api/v1/strategy
func (h *LyricistHandler) Strategy(c *gin.Context) {
	var req pipeline.Request
	if !bindRequest(c, &req, &req, true) {
		return
	}
	result, err := h.orchestrator.Strategy(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "request_id": c.GetString("request_id")})
}

// Lyrics handles POST /api/v1/lyrics
func (h *LyricistHandler) Lyrics(c *gin.Context) {
	var req pipeline.Request
	if !bindRequest(c, &req, &req, true) {
		return
	}
	result, err := h.orchestrator.Lyrics(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "request_id": c.GetString("request_id")})
}

// StrategyAndLyrics handles POST /api/v1/strategy-lyrics
func (h *LyricistHandler) StrategyAndLyrics(c *gin.Context) {
	var req pipeline.Request
	if !bindRequest(c, &req, &req, true) {
		return
	}
	result, err := h.orchestrator.StrategyAndLyrics(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "request_id": c.GetString("request_id")})
}

// Critics handles POST /api/v1/critics
func (h *LyricistHandler) Critics(c *gin.Context) {
	var req pipeline.Request
	if !bindDraftRequest(c, &req) {
		return
	}
	result, err := h.orchestrator.CriticsSwarm(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "request_id": c.GetString("request_id")})
}

// Review handles POST /api/v1/review. A degraded review still answers 200.
func (h *LyricistHandler) Review(c *gin.Context) {
	var req pipeline.Request
	if !bindDraftRequest(c, &req) {
		return
	}
	result := h.orchestrator.Review(c.Request.Context(), req)
	c.JSON(http.StatusOK, gin.H{"result": result, "request_id": c.GetString("request_id")})
}

// PostProcess handles POST /api/v1/post-process
func (h *LyricistHandler) PostProcess(c *gin.Context) {
	var req pipeline.Request
	if !bindDraftRequest(c, &req) {
		return
	}
	result, err := h.orchestrator.PostProcess(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "request_id": c.GetString("request_id")})
}

// Pipeline runs every stage and records the run when history is enabled
// POST /api/v1/pipeline
func (h *LyricistHandler) Pipeline(c *gin.Context) {
	var req PipelineRequest
	if !bindRequest(c, &req, &req.Request, true) {
		return
	}
	opts := pipeline.RunOptions{Debate: req.Debate, Separate: req.Separate}

	result, err := h.orchestrator.Run(c.Request.Context(), req.Request, opts)
	h.record(c, req.Request, opts, result, err)
	if err != nil {
		respondErrorWith(c, err, gin.H{"result": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "request_id": c.GetString("request_id")})
}

func (h *LyricistHandler) record(c *gin.Context, req pipeline.Request, opts pipeline.RunOptions, result *pipeline.Result, runErr error) {
	if h.store == nil || result == nil {
		return
	}
	userID, _ := middleware.GetCurrentUserID(c)
	run := history.Summarize(c.GetString("request_id"), userID, req, opts, result, runErr)
	if err := h.store.Create(c.Request.Context(), run); err != nil {
		fields := logger.WithContext(c)
		fields["run_id"] = result.RunID
		logger.Error("Failed to record pipeline run", err, fields)
	}
}

// History lists the caller's recent runs
// GET /api/v1/history?limit=N
func (h *LyricistHandler) History(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "run history is not enabled",
			"request_id": c.GetString("request_id"),
		})
		return
	}

	limit := history.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryPageSize {
			respondBadRequest(c, errInvalidLimit)
			return
		}
		limit = n
	}

	userID, _ := middleware.GetCurrentUserID(c)
	runs, err := h.store.List(c.Request.Context(), userID, limit)
	if err != nil {
		fields := logger.WithContext(c)
		logger.Error("Failed to list pipeline runs", err, fields)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "failed to load history",
			"request_id": c.GetString("request_id"),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "request_id": c.GetString("request_id")})
}
