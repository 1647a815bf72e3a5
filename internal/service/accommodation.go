package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"

	"github.com/unihaven/placement-api/internal/geo"
	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/repository"
)

// Accommodations handles listing intake and maintenance.
type Accommodations struct {
	d     Deps
	audit *AuditLog
}

func NewAccommodations(d Deps) *Accommodations {
	return &Accommodations{d: d, audit: NewAuditLog(d)}
}

// OwnerDetails identifies an owner inline.  An existing owner with the
// same email is reused.
type OwnerDetails struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// CreateAccommodationInput is a new listing.  When Latitude, Longitude
// or GeoAddress is missing the building name is geocoded.
type CreateAccommodationInput struct {
	Name          string
	BuildingName  string
	Description   string
	Type          model.AccommodationType
	NumBedrooms   uint32
	NumBeds       uint32
	Address       string
	GeoAddress    *string
	Latitude      *float64
	Longitude     *float64
	AvailableFrom model.Date
	AvailableTo   model.Date
	MonthlyRent   decimal.Decimal
	OwnerID       *uint64
	Owner         *OwnerDetails
}

// Create validates and stores a listing.  A failed geocode aborts the
// creation with ErrLocationRequired; coordinates are never invented.
func (s *Accommodations) Create(ctx context.Context, in CreateAccommodationInput, actor model.Actor) (*model.Accommodation, error) {
	acc := &model.Accommodation{
		Name:          strings.TrimSpace(in.Name),
		BuildingName:  strings.TrimSpace(in.BuildingName),
		Description:   in.Description,
		Type:          in.Type,
		NumBedrooms:   in.NumBedrooms,
		NumBeds:       in.NumBeds,
		Address:       strings.TrimSpace(in.Address),
		AvailableFrom: in.AvailableFrom,
		AvailableTo:   in.AvailableTo,
		MonthlyRent:   in.MonthlyRent.Round(2),
	}
	if err := validateListing(acc); err != nil {
		return nil, err
	}
	if in.OwnerID == nil && in.Owner == nil {
		return nil, Validation("owner_required", "owner_id or owner details are required")
	}

	if in.Latitude != nil && in.Longitude != nil && in.GeoAddress != nil {
		acc.Latitude, acc.Longitude, acc.GeoAddress = *in.Latitude, *in.Longitude, *in.GeoAddress
	} else {
		if acc.BuildingName == "" || s.d.Geo == nil {
			return nil, ErrLocationRequired
		}
		loc, err := s.d.Geo.Lookup(ctx, acc.BuildingName)
		if err != nil {
			log.Infof("accommodations: geocode of %q failed: %v", acc.BuildingName, err)
			return nil, ErrLocationRequired
		}
		acc.Latitude, acc.Longitude, acc.GeoAddress = loc.Latitude, loc.Longitude, truncateGeo(loc.GeoAddress)
	}
	if geoAddressTooLong(acc.GeoAddress) {
		return nil, Validation("invalid_geo_address", fmt.Sprintf("geo_address must be at most %d characters", model.GeoAddressMaxLen))
	}

	err := withTx(ctx, s.d.DB, func(tx *sql.Tx) error {
		owner, err := s.resolveOwnerTx(ctx, tx, in.OwnerID, in.Owner)
		if err != nil {
			return err
		}
		acc.OwnerID = owner.ID
		if err := s.d.Accommodations.CreateTx(ctx, tx, acc); err != nil {
			return err
		}
		acc.Owner = owner
		return s.audit.recordTx(ctx, tx, actor, entry{
			action:        model.ActionCreateAccommodation,
			accommodation: ptr(acc.ID),
			details:       fmt.Sprintf("created %q", acc.Name),
		})
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Accommodations) resolveOwnerTx(ctx context.Context, tx *sql.Tx, id *uint64, details *OwnerDetails) (*model.Owner, error) {
	if id != nil {
		o, err := s.d.Owners.GetTx(ctx, tx, *id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOwnerNotFound
		}
		return o, err
	}
	email := strings.ToLower(strings.TrimSpace(details.Email))
	if strings.TrimSpace(details.Name) == "" || email == "" {
		return nil, Validation("owner_required", "owner name and email are required")
	}
	o, err := s.d.Owners.GetByEmailTx(ctx, tx, email)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	o = &model.Owner{
		Name:    strings.TrimSpace(details.Name),
		Email:   email,
		Phone:   strings.TrimSpace(details.Phone),
		Address: strings.TrimSpace(details.Address),
	}
	if err := s.d.Owners.CreateTx(ctx, tx, o); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return o, nil
}

// Get returns a listing with its owner, photos and average approved
// rating.
func (s *Accommodations) Get(ctx context.Context, id uint64) (*model.Accommodation, error) {
	acc, err := s.d.Accommodations.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccommodationNotFound
	}
	if err != nil {
		return nil, err
	}
	if acc.AverageRating, err = s.d.Ratings.AverageApproved(ctx, id); err != nil {
		return nil, err
	}
	if acc.Photos, err = s.d.Photos.ListByAccommodation(ctx, id); err != nil {
		return nil, err
	}
	owner, err := s.d.Owners.GetByID(ctx, acc.OwnerID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	acc.Owner = owner
	return acc, nil
}

// UpdateAccommodationInput is a partial update.  Nil fields are left
// unchanged.  Availability cannot be changed here.
type UpdateAccommodationInput struct {
	Name          *string
	BuildingName  *string
	Description   *string
	Type          *model.AccommodationType
	NumBedrooms   *uint32
	NumBeds       *uint32
	Address       *string
	GeoAddress    *string
	Latitude      *float64
	Longitude     *float64
	AvailableFrom *model.Date
	AvailableTo   *model.Date
	MonthlyRent   *decimal.Decimal
	OwnerID       *uint64
}

// Update applies a partial update to a listing.
func (s *Accommodations) Update(ctx context.Context, id uint64, in UpdateAccommodationInput, actor model.Actor) (*model.Accommodation, error) {
	var acc *model.Accommodation
	err := withTx(ctx, s.d.DB, func(tx *sql.Tx) error {
		var err error
		acc, err = s.d.Accommodations.GetForUpdateTx(ctx, tx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccommodationNotFound
		}
		if err != nil {
			return err
		}

		var changed []string
		set := func(field string, apply func()) {
			apply()
			changed = append(changed, field)
		}
		if in.Name != nil {
			set("name", func() { acc.Name = strings.TrimSpace(*in.Name) })
		}
		if in.BuildingName != nil {
			set("building_name", func() { acc.BuildingName = strings.TrimSpace(*in.BuildingName) })
		}
		if in.Description != nil {
			set("description", func() { acc.Description = *in.Description })
		}
		if in.Type != nil {
			set("type", func() { acc.Type = *in.Type })
		}
		if in.NumBedrooms != nil {
			set("num_bedrooms", func() { acc.NumBedrooms = *in.NumBedrooms })
		}
		if in.NumBeds != nil {
			set("num_beds", func() { acc.NumBeds = *in.NumBeds })
		}
		if in.Address != nil {
			set("address", func() { acc.Address = strings.TrimSpace(*in.Address) })
		}
		if in.GeoAddress != nil {
			set("geo_address", func() { acc.GeoAddress = *in.GeoAddress })
		}
		if in.Latitude != nil {
			set("latitude", func() { acc.Latitude = *in.Latitude })
		}
		if in.Longitude != nil {
			set("longitude", func() { acc.Longitude = *in.Longitude })
		}
		if in.AvailableFrom != nil {
			set("available_from", func() { acc.AvailableFrom = *in.AvailableFrom })
		}
		if in.AvailableTo != nil {
			set("available_to", func() { acc.AvailableTo = *in.AvailableTo })
		}
		if in.MonthlyRent != nil {
			set("monthly_rent", func() { acc.MonthlyRent = in.MonthlyRent.Round(2) })
		}
		if in.OwnerID != nil {
			if _, err := s.d.Owners.GetTx(ctx, tx, *in.OwnerID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrOwnerNotFound
				}
				return err
			}
			set("owner_id", func() { acc.OwnerID = *in.OwnerID })
		}
		if len(changed) == 0 {
			return Validation("no_changes", "no updatable fields supplied")
		}
		if err := validateListing(acc); err != nil {
			return err
		}
		if geoAddressTooLong(acc.GeoAddress) {
			return Validation("invalid_geo_address", fmt.Sprintf("geo_address must be at most %d characters", model.GeoAddressMaxLen))
		}
		if err := s.d.Accommodations.UpdateTx(ctx, tx, acc); err != nil {
			return err
		}
		sort.Strings(changed)
		return s.audit.recordTx(ctx, tx, actor, entry{
			action:        model.ActionUpdateAccommodation,
			accommodation: ptr(acc.ID),
			details:       "updated " + strings.Join(changed, ", "),
		})
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Delete removes a listing that has no active reservations.  Stored
// photo objects are removed after the commit on a best-effort basis.
func (s *Accommodations) Delete(ctx context.Context, id uint64, actor model.Actor) error {
	var keys []string
	err := withTx(ctx, s.d.DB, func(tx *sql.Tx) error {
		acc, err := s.d.Accommodations.GetForUpdateTx(ctx, tx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccommodationNotFound
		}
		if err != nil {
			return err
		}
		active, err := s.d.Reservations.CountActiveTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrActiveReservations
		}
		if keys, err = s.d.Photos.ObjectKeysByAccommodationTx(ctx, tx, id); err != nil {
			return err
		}
		if err := s.d.Accommodations.DeleteTx(ctx, tx, id); err != nil {
			return err
		}
		return s.audit.recordTx(ctx, tx, actor, entry{
			action:        model.ActionDeleteAccommodation,
			accommodation: ptr(id),
			details:       fmt.Sprintf("deleted %q", acc.Name),
		})
	})
	if err != nil {
		return err
	}
	s.removeObjects(ctx, keys)
	return nil
}

func (s *Accommodations) removeObjects(ctx context.Context, keys []string) {
	if s.d.Store == nil {
		return
	}
	for _, k := range keys {
		if err := s.d.Store.Delete(ctx, k); err != nil {
			log.Warnf("accommodations: delete photo object %s failed: %v", k, err)
		}
	}
}

// ListUnavailable returns listings that are currently off the market.
func (s *Accommodations) ListUnavailable(ctx context.Context) ([]model.Accommodation, error) {
	return s.d.Accommodations.ListUnavailable(ctx)
}

// LocationData geocodes a building name on behalf of an intake form.
func (s *Accommodations) LocationData(ctx context.Context, buildingName string) (*geo.Location, error) {
	name := strings.TrimSpace(buildingName)
	if name == "" {
		return nil, Validation("building_name_required", "building_name is required")
	}
	if s.d.Geo == nil {
		return nil, ErrLocationNotFound
	}
	loc, err := s.d.Geo.Lookup(ctx, name)
	if err != nil {
		return nil, ErrLocationNotFound
	}
	loc.GeoAddress = truncateGeo(loc.GeoAddress)
	return &loc, nil
}

func validateListing(a *model.Accommodation) error {
	if a.Name == "" {
		return Validation("name_required", "name is required")
	}
	if a.Address == "" {
		return Validation("address_required", "address is required")
	}
	if !a.Type.IsValid() {
		return Validation("invalid_type", "type must be one of APARTMENT, HOUSE, SHARED, STUDIO")
	}
	if a.AvailableFrom.IsZero() || a.AvailableTo.IsZero() {
		return Validation("dates_required", "available_from and available_to are required")
	}
	if a.AvailableFrom.After(a.AvailableTo) {
		return ErrInvalidRange
	}
	if a.MonthlyRent.IsNegative() {
		return Validation("invalid_rent", "monthly_rent must not be negative")
	}
	return nil
}

// truncateGeo cuts s to GeoAddressMaxLen characters, never splitting a
// multi-byte rune.
func truncateGeo(s string) string {
	if utf8.RuneCountInString(s) <= model.GeoAddressMaxLen {
		return s
	}
	return string([]rune(s)[:model.GeoAddressMaxLen])
}

func geoAddressTooLong(s string) bool {
	return utf8.RuneCountInString(s) > model.GeoAddressMaxLen
}
