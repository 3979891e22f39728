package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/requestdata"
	"github.com/ironquote/ironquote-backend/internal/services"
)

type PricingHandler struct {
	log *logger.Logger
	svc services.PricingRunService
}

func NewPricingHandler(log *logger.Logger, svc services.PricingRunService) *PricingHandler {
	handlerLog := log.With("handler", "PricingHandler")
	return &PricingHandler{log: handlerLog, svc: svc}
}

// respondServiceError maps the pricing core's error taxonomy onto HTTP.
func (h *PricingHandler) respondServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var pf *services.PreflightError
	var wv *services.WorkflowViolationError
	var rl *services.RunLockedError

	switch {
	case errors.As(err, &verr):
		RespondError(c, http.StatusBadRequest, "validation_failed", err)
	case errors.As(err, &pf):
		RespondErrorWithDetails(c, http.StatusUnprocessableEntity, "preflight_failed", err, gin.H{
			"missing":           pf.Missing,
			"validation_errors": pf.ValidationErrors,
		})
	case errors.As(err, &wv):
		RespondErrorWithDetails(c, http.StatusConflict, "workflow_violation", err, gin.H{
			"current_run_id": wv.CurrentRunID,
		})
	case errors.As(err, &rl):
		RespondErrorWithDetails(c, http.StatusLocked, "run_locked", err, gin.H{
			"run_id":    rl.RunID,
			"locked_at": rl.LockedAt,
			"locked_by": rl.LockedBy,
		})
	case errors.Is(err, services.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	default:
		h.log.Error("Unhandled pricing error", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}

func tenantFrom(c *gin.Context) (uuid.UUID, string, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		RespondError(c, http.StatusForbidden, "forbidden", errors.New("missing tenant context"))
		return uuid.Nil, "", false
	}
	return rd.TenantID, rd.Actor, true
}

type createRunRequest struct {
	SupersededReason     string `json:"superseded_reason"`
	HasRepricePermission bool   `json:"has_reprice_permission"`
}

// POST /api/requests/:id/pricing-runs
func (h *PricingHandler) CreateRun(c *gin.Context) {
	tenantID, actor, ok := tenantFrom(c)
	if !ok {
		return
	}
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid request id"))
		return
	}
	var body createRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}

	run, err := h.svc.CreatePricingRun(c.Request.Context(), tenantID, requestID, services.CreateRunOptions{
		SupersededReason:     body.SupersededReason,
		HasRepricePermission: body.HasRepricePermission,
		CreatedBy:            actor,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"run": run})
}

// GET /api/pricing-runs/:id
func (h *PricingHandler) GetRun(c *gin.Context) {
	tenantID, _, ok := tenantFrom(c)
	if !ok {
		return
	}
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid run id"))
		return
	}
	run, err := h.svc.GetPricingRun(c.Request.Context(), nil, tenantID, runID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}

// GET /api/requests/:id/pricing-runs
func (h *PricingHandler) ListRunsForRequest(c *gin.Context) {
	tenantID, _, ok := tenantFrom(c)
	if !ok {
		return
	}
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid request id"))
		return
	}
	runs, err := h.svc.GetPricingRunsForRequest(c.Request.Context(), nil, tenantID, requestID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"runs": runs})
}

// GET /api/pricing-runs/:id/items
func (h *PricingHandler) GetRunItems(c *gin.Context) {
	tenantID, _, ok := tenantFrom(c)
	if !ok {
		return
	}
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid run id"))
		return
	}
	items, err := h.svc.GetRunItems(c.Request.Context(), nil, tenantID, runID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}

// GET /api/pricing-runs/:id/versions
func (h *PricingHandler) GetVersions(c *gin.Context) {
	tenantID, _, ok := tenantFrom(c)
	if !ok {
		return
	}
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid run id"))
		return
	}
	versions, err := h.svc.GetVersions(c.Request.Context(), nil, tenantID, runID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"versions": versions})
}

// GET /api/pricing-runs/:id/snapshots
func (h *PricingHandler) GetSnapshots(c *gin.Context) {
	tenantID, _, ok := tenantFrom(c)
	if !ok {
		return
	}
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid run id"))
		return
	}
	snapshots, err := h.svc.GetSnapshots(c.Request.Context(), nil, tenantID, runID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"snapshots": snapshots})
}

// GET /api/pricing-runs/:id/diff?v1=1&v2=2
// v2 defaults to the lineage's current version.
func (h *PricingHandler) CompareVersions(c *gin.Context) {
	tenantID, _, ok := tenantFrom(c)
	if !ok {
		return
	}
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid run id"))
		return
	}
	v1, err := strconv.Atoi(c.Query("v1"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_version", errors.New("v1 must be an integer version number"))
		return
	}
	var v2 *int
	if raw := c.Query("v2"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_version", errors.New("v2 must be an integer version number"))
			return
		}
		v2 = &parsed
	}

	diff, err := h.svc.CompareVersions(c.Request.Context(), nil, tenantID, runID, v1, v2)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"diff": diff})
}

// POST /api/pricing-runs/:id/lock
func (h *PricingHandler) LockRun(c *gin.Context) {
	tenantID, actor, ok := tenantFrom(c)
	if !ok {
		return
	}
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid run id"))
		return
	}
	run, err := h.svc.LockPricingRun(c.Request.Context(), tenantID, runID, actor)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}

type createRevisionRequest struct {
	Reason string `json:"reason"`
}

// POST /api/pricing-runs/:id/revisions
func (h *PricingHandler) CreateRevision(c *gin.Context) {
	tenantID, actor, ok := tenantFrom(c)
	if !ok {
		return
	}
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid run id"))
		return
	}
	var body createRevisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	revision, err := h.svc.CreateRevision(c.Request.Context(), tenantID, runID, body.Reason, actor)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"run": revision})
}

type updateOutcomeRequest struct {
	Outcome string     `json:"outcome"`
	Date    *time.Time `json:"date"`
	Reason  string     `json:"reason"`
}

// PATCH /api/pricing-runs/:id/outcome
func (h *PricingHandler) UpdateOutcome(c *gin.Context) {
	tenantID, _, ok := tenantFrom(c)
	if !ok {
		return
	}
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid run id"))
		return
	}
	var body updateOutcomeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	run, err := h.svc.UpdateOutcome(c.Request.Context(), tenantID, runID, body.Outcome, body.Date, body.Reason)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}
