package clients

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"contracts-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// ClientResponse is the outward-facing representation of a client.
type ClientResponse struct {
	ClientID  string    `json:"clientId"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type createRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterRoutes attaches client routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/clients", h.create)
	rg.GET("/clients", h.list)
	rg.GET("/clients/:id", h.get)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	client, err := h.Svc.Create(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create client", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(client))
}

func (h *Handler) get(c *gin.Context) {
	client, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "client not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch client", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(client))
}

func (h *Handler) list(c *gin.Context) {
	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	list, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list clients", nil)
		return
	}

	resp := make([]ClientResponse, 0, len(list))
	for _, client := range list {
		resp = append(resp, toResponse(client))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func toResponse(client Client) ClientResponse {
	return ClientResponse{
		ClientID:  client.ID,
		Name:      client.Name,
		Email:     client.Email,
		CreatedAt: client.CreatedAt,
	}
}
