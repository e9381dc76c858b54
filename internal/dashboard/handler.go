package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"contracts-backend/internal/contracts"
	"contracts-backend/internal/shared/server/respond"
)

// ItemResponse is an expiring contract as shown on the dashboard.
type ItemResponse struct {
	contracts.ContractResponse
	DaysUntilExpiry int  `json:"daysUntilExpiry"`
	Urgency         Tier `json:"urgency"`
}

// ViewResponse is the outward-facing dashboard payload.
type ViewResponse struct {
	Summary     contracts.Summary `json:"summary"`
	Expiring    []ItemResponse    `json:"expiring"`
	WindowDays  int               `json:"windowDays"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches dashboard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.view)
}

func (h *Handler) view(c *gin.Context) {
	view, err := h.Svc.Load(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load dashboard", nil)
		return
	}
	respond.JSON(c, http.StatusOK, ToResponse(view))
}

// ToResponse renders a view for JSON output.
func ToResponse(view View) ViewResponse {
	items := make([]ItemResponse, 0, len(view.Expiring))
	for _, item := range view.Expiring {
		items = append(items, ItemResponse{
			ContractResponse: contracts.ToNamedResponse(item.Contract),
			DaysUntilExpiry:  item.DaysUntilExpiry,
			Urgency:          item.Urgency,
		})
	}
	return ViewResponse{
		Summary:     view.Summary,
		Expiring:    items,
		WindowDays:  view.WindowDays,
		GeneratedAt: view.GeneratedAt,
	}
}
