package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/unihaven/placement-api/internal/middleware"
	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/service"
)

// AccommodationHandler serves listing intake, search and withdrawal.
type AccommodationHandler struct {
	Accommodations *service.Accommodations
	Search         *service.Search
	Ledger         *service.Ledger
}

// NewAccommodationHandler panics if any dependency is nil.
func NewAccommodationHandler(acc *service.Accommodations, search *service.Search, ledger *service.Ledger) *AccommodationHandler {
	if acc == nil || search == nil || ledger == nil {
		panic("nil service passed to NewAccommodationHandler")
	}
	return &AccommodationHandler{Accommodations: acc, Search: search, Ledger: ledger}
}

// SearchAccommodations handles GET /v1/accommodations/search.
func (h *AccommodationHandler) SearchAccommodations(c echo.Context) error {
	q := &queryParser{c: c}
	f := service.SearchFilters{
		Type:          model.AccommodationType(strings.ToUpper(q.raw("type"))),
		AvailableFrom: q.date("available_from"),
		AvailableTo:   q.date("available_to"),
		MinBeds:       q.uint32("num_beds"),
		MinBedrooms:   q.uint32("num_bedrooms"),
		MinPrice:      q.decimal("min_price"),
		MaxPrice:      q.decimal("max_price"),
		CampusID:      q.uint64("campus_id"),
		SortBy:        q.raw("sort_by"),
	}
	if q.err != nil {
		return respondError(c, q.err)
	}
	items, err := h.Search.Run(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "count": len(items)})
}

type ownerRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"max=32"`
	Address string `json:"address" validate:"max=500"`
}

type createAccommodationRequest struct {
	Name          string          `json:"name" validate:"required,max=255"`
	BuildingName  string          `json:"building_name" validate:"max=255"`
	Description   string          `json:"description"`
	Type          string          `json:"type" validate:"required"`
	NumBedrooms   uint32          `json:"num_bedrooms"`
	NumBeds       uint32          `json:"num_beds"`
	Address       string          `json:"address" validate:"required,max=500"`
	GeoAddress    *string         `json:"geo_address"`
	Latitude      *float64        `json:"latitude" validate:"omitnil,gte=-90,lte=90"`
	Longitude     *float64        `json:"longitude" validate:"omitnil,gte=-180,lte=180"`
	AvailableFrom model.Date      `json:"available_from"`
	AvailableTo   model.Date      `json:"available_to"`
	MonthlyRent   decimal.Decimal `json:"monthly_rent"`
	OwnerID       *uint64         `json:"owner_id"`
	Owner         *ownerRequest   `json:"owner" validate:"omitnil"`
}

// CreateAccommodation handles POST /v1/accommodations.  Missing
// coordinates are resolved from building_name.
func (h *AccommodationHandler) CreateAccommodation(c echo.Context) error {
	var req createAccommodationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	in := service.CreateAccommodationInput{
		Name:          req.Name,
		BuildingName:  req.BuildingName,
		Description:   req.Description,
		Type:          model.AccommodationType(strings.ToUpper(strings.TrimSpace(req.Type))),
		NumBedrooms:   req.NumBedrooms,
		NumBeds:       req.NumBeds,
		Address:       req.Address,
		GeoAddress:    req.GeoAddress,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		AvailableFrom: req.AvailableFrom,
		AvailableTo:   req.AvailableTo,
		MonthlyRent:   req.MonthlyRent,
		OwnerID:       req.OwnerID,
	}
	if req.Owner != nil {
		in.Owner = &service.OwnerDetails{
			Name:    req.Owner.Name,
			Email:   req.Owner.Email,
			Phone:   req.Owner.Phone,
			Address: req.Owner.Address,
		}
	}
	acc, err := h.Accommodations.Create(c.Request().Context(), in, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, acc)
}

// GetAccommodation handles GET /v1/accommodations/:id.
func (h *AccommodationHandler) GetAccommodation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	acc, err := h.Accommodations.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, acc)
}

type updateAccommodationRequest struct {
	Name          *string          `json:"name" validate:"omitnil,max=255"`
	BuildingName  *string          `json:"building_name" validate:"omitnil,max=255"`
	Description   *string          `json:"description"`
	Type          *string          `json:"type"`
	NumBedrooms   *uint32          `json:"num_bedrooms"`
	NumBeds       *uint32          `json:"num_beds"`
	Address       *string          `json:"address" validate:"omitnil,max=500"`
	GeoAddress    *string          `json:"geo_address"`
	Latitude      *float64         `json:"latitude" validate:"omitnil,gte=-90,lte=90"`
	Longitude     *float64         `json:"longitude" validate:"omitnil,gte=-180,lte=180"`
	AvailableFrom *model.Date      `json:"available_from"`
	AvailableTo   *model.Date      `json:"available_to"`
	MonthlyRent   *decimal.Decimal `json:"monthly_rent"`
	OwnerID       *uint64          `json:"owner_id"`
}

// UpdateAccommodation handles PATCH /v1/accommodations/:id.  The
// is_available flag is not accepted here.
func (h *AccommodationHandler) UpdateAccommodation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateAccommodationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	in := service.UpdateAccommodationInput{
		Name:          req.Name,
		BuildingName:  req.BuildingName,
		Description:   req.Description,
		NumBedrooms:   req.NumBedrooms,
		NumBeds:       req.NumBeds,
		Address:       req.Address,
		GeoAddress:    req.GeoAddress,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		AvailableFrom: req.AvailableFrom,
		AvailableTo:   req.AvailableTo,
		MonthlyRent:   req.MonthlyRent,
		OwnerID:       req.OwnerID,
	}
	if req.Type != nil {
		t := model.AccommodationType(strings.ToUpper(strings.TrimSpace(*req.Type)))
		in.Type = &t
	}
	acc, err := h.Accommodations.Update(c.Request().Context(), id, in, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, acc)
}

// DeleteAccommodation handles DELETE /v1/accommodations/:id.  Listings
// with pending or confirmed reservations are kept (409).
func (h *AccommodationHandler) DeleteAccommodation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Accommodations.Delete(c.Request().Context(), id, middleware.Actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type markUnavailableRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// MarkUnavailable handles POST /v1/accommodations/:id/mark-unavailable.
func (h *AccommodationHandler) MarkUnavailable(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req markUnavailableRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	acc, err := h.Ledger.Withdraw(c.Request().Context(), id, middleware.Actor(c), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, acc)
}

// MarkAvailable handles POST /v1/accommodations/:id/mark-available.
func (h *AccommodationHandler) MarkAvailable(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	acc, err := h.Ledger.Restore(c.Request().Context(), id, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, acc)
}

// ListUnavailable handles GET /v1/accommodations/unavailable.
func (h *AccommodationHandler) ListUnavailable(c echo.Context) error {
	items, err := h.Accommodations.ListUnavailable(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "count": len(items)})
}

type locationDataRequest struct {
	BuildingName string `json:"building_name" validate:"required,max=255"`
}

// LocationData handles POST /v1/accommodations/location-data.
func (h *AccommodationHandler) LocationData(c echo.Context) error {
	var req locationDataRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	loc, err := h.Accommodations.LocationData(c.Request().Context(), req.BuildingName)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, loc)
}
