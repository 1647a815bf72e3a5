package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/repository"
)

// Directory covers the people and places around the placement rules:
// members, specialists, campuses and specialist notifications.
type Directory struct {
	d Deps
}

func NewDirectory(d Deps) *Directory { return &Directory{d: d} }

var validate = validator.New()

// PersonInput registers a member or specialist.
type PersonInput struct {
	Name  string
	Email string
	Phone string
}

func (in PersonInput) normalize() (PersonInput, error) {
	out := PersonInput{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
		Phone: strings.TrimSpace(in.Phone),
	}
	if out.Name == "" {
		return out, Validation("name_required", "name is required")
	}
	if err := validate.Var(out.Email, "required,email,max=255"); err != nil {
		return out, Validation("invalid_email", "email is not valid")
	}
	return out, nil
}

func (s *Directory) CreateMember(ctx context.Context, in PersonInput) (*model.Member, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	m := &model.Member{Name: in.Name, Email: in.Email, Phone: in.Phone}
	if err := s.d.Members.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return m, nil
}

func (s *Directory) GetMember(ctx context.Context, id uint64) (*model.Member, error) {
	m, err := s.d.Members.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	return m, err
}

// MemberReservations lists a member's reservations, newest first.
func (s *Directory) MemberReservations(ctx context.Context, memberID uint64) ([]model.Reservation, error) {
	if _, err := s.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	return s.d.Reservations.ListByMember(ctx, memberID)
}

func (s *Directory) CreateSpecialist(ctx context.Context, in PersonInput) (*model.Specialist, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	sp := &model.Specialist{Name: in.Name, Email: in.Email, Phone: in.Phone}
	if err := s.d.Specialists.Create(ctx, sp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return sp, nil
}

func (s *Directory) GetSpecialist(ctx context.Context, id uint64) (*model.Specialist, error) {
	sp, err := s.d.Specialists.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSpecialistNotFound
	}
	return sp, err
}

func (s *Directory) ListSpecialists(ctx context.Context) ([]model.Specialist, error) {
	return s.d.Specialists.List(ctx)
}

// SpecialistNotifications lists a specialist's notifications, newest
// first, optionally only the unread ones.
func (s *Directory) SpecialistNotifications(ctx context.Context, specialistID uint64, unreadOnly bool) ([]model.Notification, error) {
	if _, err := s.GetSpecialist(ctx, specialistID); err != nil {
		return nil, err
	}
	return s.d.Notifications.ListBySpecialist(ctx, specialistID, unreadOnly)
}

func (s *Directory) MarkNotificationRead(ctx context.Context, id uint64) error {
	err := s.d.Notifications.MarkRead(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotificationNotFound
	}
	return err
}

// CampusInput registers a campus reference point.
type CampusInput struct {
	Name      string
	Latitude  float64
	Longitude float64
}

func (s *Directory) CreateCampus(ctx context.Context, in CampusInput) (*model.Campus, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, Validation("name_required", "name is required")
	}
	if math.Abs(in.Latitude) > 90 || math.Abs(in.Longitude) > 180 {
		return nil, Validation("invalid_coordinates", "latitude must be within ±90 and longitude within ±180")
	}
	c := &model.Campus{Name: name, Latitude: in.Latitude, Longitude: in.Longitude}
	if err := s.d.Campuses.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Directory) ListCampuses(ctx context.Context) ([]model.Campus, error) {
	return s.d.Campuses.List(ctx)
}
