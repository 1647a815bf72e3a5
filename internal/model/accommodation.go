package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccommodationType classifies a listing.
type AccommodationType string

const (
	TypeApartment AccommodationType = "APARTMENT"
	TypeHouse     AccommodationType = "HOUSE"
	TypeShared    AccommodationType = "SHARED"
	TypeStudio    AccommodationType = "STUDIO"
)

// IsValid reports whether t is a known accommodation type.
func (t AccommodationType) IsValid() bool {
	switch t {
	case TypeApartment, TypeHouse, TypeShared, TypeStudio:
		return true
	}
	return false
}

// ParseAccommodationType accepts a type name in any letter case.
func ParseAccommodationType(raw string) (AccommodationType, error) {
	t := AccommodationType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid accommodation type: %q", raw)
	}
	return t, nil
}

// GeoAddressMaxLen caps the standardized geocode identifier.
const GeoAddressMaxLen = 19

// Accommodation is a listed housing unit.
//
// Fields:
//
//	AvailableFrom/AvailableTo – inclusive availability window.
//	MonthlyRent               – decimal with two fractional digits.
//	IsAvailable               – stored projection of "no active reservation";
//	                            only the availability ledger writes it.
//	Distance                  – kilometres to a campus, set by search only.
//	AverageRating             – mean approved score, set on detail reads only.
type Accommodation struct {
	ID            uint64               `json:"id"`             // accommodations.id
	Name          string               `json:"name"`           // accommodations.name
	BuildingName  string               `json:"building_name"`  // accommodations.building_name
	Description   string               `json:"description"`    // accommodations.description
	Type          AccommodationType    `json:"type"`           // accommodations.type
	NumBedrooms   uint32               `json:"num_bedrooms"`   // accommodations.num_bedrooms
	NumBeds       uint32               `json:"num_beds"`       // accommodations.num_beds
	Address       string               `json:"address"`        // accommodations.address
	GeoAddress    string               `json:"geo_address"`    // accommodations.geo_address
	Latitude      float64              `json:"latitude"`       // accommodations.latitude
	Longitude     float64              `json:"longitude"`      // accommodations.longitude
	AvailableFrom Date                 `json:"available_from"` // accommodations.available_from
	AvailableTo   Date                 `json:"available_to"`   // accommodations.available_to
	MonthlyRent   decimal.Decimal      `json:"monthly_rent"`   // accommodations.monthly_rent
	OwnerID       uint64               `json:"owner_id"`       // accommodations.owner_id
	IsAvailable   bool                 `json:"is_available"`   // accommodations.is_available
	CreatedAt     time.Time            `json:"created_at"`     // accommodations.created_at
	UpdatedAt     time.Time            `json:"updated_at"`     // accommodations.updated_at
	Distance      *float64             `json:"distance,omitempty"`
	AverageRating *float64             `json:"average_rating,omitempty"`
	Owner         *Owner               `json:"owner,omitempty"`
	Photos        []AccommodationPhoto `json:"photos,omitempty"`
}

// Covers reports whether the availability window contains [from, to].
func (a *Accommodation) Covers(from, to Date) bool {
	return !from.Before(a.AvailableFrom) && !to.After(a.AvailableTo)
}

// Owner is the contact identity behind one or more listings.
type Owner struct {
	ID        uint64    `json:"id"`         // owners.id
	Name      string    `json:"name"`       // owners.name
	Email     string    `json:"email"`      // owners.email
	Phone     string    `json:"phone"`      // owners.phone
	Address   string    `json:"address"`    // owners.address
	CreatedAt time.Time `json:"created_at"` // owners.created_at
}

// Campus is a reference location used for distance ranking.
type Campus struct {
	ID        uint64  `json:"id"`        // campuses.id
	Name      string  `json:"name"`      // campuses.name
	Latitude  float64 `json:"latitude"`  // campuses.latitude
	Longitude float64 `json:"longitude"` // campuses.longitude
}

// AccommodationPhoto is an image attached to a listing.  At most one
// photo per accommodation has IsPrimary set.
type AccommodationPhoto struct {
	ID              uint64    `json:"id"`               // accommodation_photos.id
	AccommodationID uint64    `json:"accommodation_id"` // accommodation_photos.accommodation_id
	ObjectKey       string    `json:"-"`                // accommodation_photos.object_key
	URL             string    `json:"url"`              // accommodation_photos.url
	Caption         string    `json:"caption"`          // accommodation_photos.caption
	SortOrder       int       `json:"order"`            // accommodation_photos.sort_order
	IsPrimary       bool      `json:"is_primary"`       // accommodation_photos.is_primary
	CreatedAt       time.Time `json:"created_at"`       // accommodation_photos.created_at
}
