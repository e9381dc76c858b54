package contracts

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"contracts-backend/internal/audit"
	"contracts-backend/internal/shared/server/middleware"
	"contracts-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc   *Service
	Audit audit.Store
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, auditStore audit.Store) *Handler {
	return &Handler{Svc: svc, Audit: auditStore}
}

// RegisterRoutes attaches contract routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/contracts", h.create)
	rg.GET("/contracts", h.list)
	rg.GET("/contracts/expiring", h.expiring)
	rg.GET("/contracts/summary", h.summary)
	rg.GET("/contracts/:documentId", h.get)
	rg.PATCH("/contracts/:documentId", h.updateDetails)
	rg.POST("/contracts/:documentId/status", h.updateStatus)
	rg.GET("/contracts/:documentId/audit", h.auditLog)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.DocumentID = strings.TrimSpace(req.DocumentID)
	if req.DocumentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentId is required", nil)
		return
	}
	c.Set("documentId", req.DocumentID)

	in, err := req.toInput()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	contract, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), req.DocumentID, in)
	if err != nil {
		h.writeError(c, err, "failed to create contract")
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(contract))
}

func (h *Handler) get(c *gin.Context) {
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	contract, found, err := h.Svc.Get(c.Request.Context(), documentID)
	if err != nil {
		h.writeError(c, err, "failed to fetch contract")
		return
	}
	if !found {
		respond.Error(c, http.StatusNotFound, "not_found", "contract not found", nil)
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(contract))
}

func (h *Handler) updateDetails(c *gin.Context) {
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	ctx := c.Request.Context()
	if err := h.Svc.UpdateDetails(ctx, middleware.UserIDFromContext(c), documentID, patch); err != nil {
		h.writeError(c, err, "failed to update contract")
		return
	}

	h.respondCurrent(c, documentID)
}

func (h *Handler) updateStatus(c *gin.Context) {
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	to, err := ParseStatus(req.Status)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	change, err := h.Svc.ChangeStatus(c.Request.Context(), middleware.UserIDFromContext(c), documentID, to)
	if err != nil {
		var transitionErr *TransitionError
		if errors.As(err, &transitionErr) {
			c.Set("statusTransition", string(transitionErr.From)+"->"+string(transitionErr.To))
		}
		h.writeError(c, err, "failed to update contract status")
		return
	}
	c.Set("statusTransition", string(change.From)+"->"+string(to))

	respond.JSON(c, http.StatusOK, toResponse(change.Contract))
}

func (h *Handler) list(c *gin.Context) {
	var status *Status
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		parsed, err := ParseStatus(raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		status = &parsed
	}

	list, err := h.Svc.ListByStatus(c.Request.Context(), status)
	if err != nil {
		h.writeError(c, err, "failed to list contracts")
		return
	}

	respond.JSON(c, http.StatusOK, toNamedResponses(list))
}

func (h *Handler) expiring(c *gin.Context) {
	days := DefaultExpiringDays
	if v := c.Query("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "days must be a non-negative integer", nil)
			return
		}
		days = parsed
	}
	if days > 3650 {
		days = 3650
	}

	list, err := h.Svc.ListExpiring(c.Request.Context(), days)
	if err != nil {
		h.writeError(c, err, "failed to list expiring contracts")
		return
	}

	respond.JSON(c, http.StatusOK, toNamedResponses(list))
}

func (h *Handler) summary(c *gin.Context) {
	summary, err := h.Svc.Summarize(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to summarize contracts", gin.H{"summary": summary})
		return
	}

	respond.JSON(c, http.StatusOK, summary)
}

func (h *Handler) auditLog(c *gin.Context) {
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)
	if h.Audit == nil {
		respond.JSON(c, http.StatusOK, []AuditEntryResponse{})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.Audit.ListByEntity(c.Request.Context(), audit.EntityContract, documentID, limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list audit entries", nil)
		return
	}

	respond.JSON(c, http.StatusOK, toAuditResponses(entries))
}

func (h *Handler) respondCurrent(c *gin.Context, documentID string) {
	contract, found, err := h.Svc.Get(c.Request.Context(), documentID)
	if err != nil || !found {
		c.Status(http.StatusNoContent)
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(contract))
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	var transitionErr *TransitionError
	switch {
	case errors.As(err, &transitionErr):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), gin.H{
			"from": transitionErr.From,
			"to":   transitionErr.To,
		})
	case errors.Is(err, ErrStatusConflict):
		respond.Error(c, http.StatusConflict, "status_conflict", err.Error(), nil)
	case errors.Is(err, ErrAlreadyExists):
		respond.Error(c, http.StatusConflict, "already_exists", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "contract not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
