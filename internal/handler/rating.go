package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/unihaven/placement-api/internal/middleware"
	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/service"
)

// RatingHandler serves rating reads and moderation.
type RatingHandler struct {
	Gate *service.RatingGate
}

// NewRatingHandler panics if gate is nil.
func NewRatingHandler(gate *service.RatingGate) *RatingHandler {
	if gate == nil {
		panic("nil service passed to NewRatingHandler")
	}
	return &RatingHandler{Gate: gate}
}

type moderateRequest struct {
	SpecialistID   uint64 `json:"specialist_id"`
	IsApproved     *bool  `json:"is_approved" validate:"required"`
	ModerationNote string `json:"moderation_note" validate:"max=2000"`
}

// Moderate handles POST /v1/ratings/:id/moderate.  specialist_id
// defaults to the authenticated specialist.
func (h *RatingHandler) Moderate(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req moderateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.SpecialistID == 0 {
		if actor := middleware.Actor(c); actor.Type == model.ActorSpecialist {
			req.SpecialistID = *actor.ID
		}
	}
	if req.SpecialistID == 0 {
		return respondError(c, service.Validation("specialist_required", "specialist_id is required"))
	}
	rt, err := h.Gate.Moderate(c.Request().Context(), service.ModerateInput{
		RatingID:     id,
		SpecialistID: req.SpecialistID,
		IsApproved:   *req.IsApproved,
		Note:         req.ModerationNote,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rt)
}

// Pending handles GET /v1/ratings/pending, oldest first.
func (h *RatingHandler) Pending(c echo.Context) error {
	items, err := h.Gate.ListPending(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "count": len(items)})
}

// ForAccommodation handles GET /v1/accommodations/:id/ratings.  Only
// approved ratings are listed.
func (h *RatingHandler) ForAccommodation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.Gate.ListForAccommodation(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "count": len(items)})
}
