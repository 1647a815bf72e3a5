package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/unihaven/placement-api/internal/middleware"
	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/service"
)

// ReservationHandler serves booking, cancellation, status changes and
// rating submission.
type ReservationHandler struct {
	Ledger *service.Ledger
	States *service.ReservationStates
	Gate   *service.RatingGate
}

// NewReservationHandler panics if any dependency is nil.
func NewReservationHandler(ledger *service.Ledger, states *service.ReservationStates, gate *service.RatingGate) *ReservationHandler {
	if ledger == nil || states == nil || gate == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Ledger: ledger, States: states, Gate: gate}
}

type reserveRequest struct {
	MemberID     uint64     `json:"member_id"`
	ReservedFrom model.Date `json:"reserved_from"`
	ReservedTo   model.Date `json:"reserved_to"`
	ContactName  string     `json:"contact_name" validate:"max=255"`
	ContactPhone string     `json:"contact_phone" validate:"max=32"`
}

// Reserve handles POST /v1/accommodations/:id/reserve.  A member token
// supplies member_id when the body omits it, and the member's own name
// and phone fill in missing contact details.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	accID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req reserveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.MemberID == 0 {
		if actor := middleware.Actor(c); actor.Type == model.ActorMember {
			req.MemberID = *actor.ID
		}
	}
	if req.MemberID == 0 {
		return respondError(c, service.Validation("member_required", "member_id is required"))
	}
	res, err := h.Ledger.Reserve(c.Request().Context(), service.ReserveInput{
		AccommodationID: accID,
		MemberID:        req.MemberID,
		ReservedFrom:    req.ReservedFrom,
		ReservedTo:      req.ReservedTo,
		ContactName:     req.ContactName,
		ContactPhone:    req.ContactPhone,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// GetReservation handles GET /v1/reservations/:id.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.States.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// CancelReservation handles POST /v1/reservations/:id/cancel.  Only a
// PENDING reservation can be cancelled.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.States.Cancel(c.Request().Context(), id, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles POST /v1/reservations/:id/update-status.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	res, err := h.States.SetStatus(c.Request().Context(), id, req.Status, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type rateRequest struct {
	Score   *int   `json:"score" validate:"required"`
	Comment string `json:"comment" validate:"max=2000"`
}

// Rate handles POST /v1/reservations/:id/rate.
func (h *ReservationHandler) Rate(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req rateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	rt, err := h.Gate.Submit(c.Request().Context(), id, *req.Score, req.Comment)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, rt)
}
