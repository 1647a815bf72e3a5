package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/unihaven/placement-api/internal/model"
)

// MaxPhotoBytes caps a single uploaded image.
const MaxPhotoBytes = 10 << 20

// Photos manages listing images.  Bytes go to the photo store; rows
// hold the key, URL and display order.
type Photos struct {
	d     Deps
	audit *AuditLog
}

func NewPhotos(d Deps) *Photos { return &Photos{d: d, audit: NewAuditLog(d)} }

// PhotoUpload is one image to attach to a listing.
type PhotoUpload struct {
	AccommodationID uint64
	Filename        string
	ContentType     string
	Size            int64
	Body            io.Reader
	Caption         string
	Order           int
	IsPrimary       bool
}

// Upload stores the image and records it.  If the database write
// fails the stored object is removed again.
func (p *Photos) Upload(ctx context.Context, in PhotoUpload, actor model.Actor) (*model.AccommodationPhoto, error) {
	if p.d.Store == nil {
		return nil, errors.New("photo store not configured")
	}
	if !strings.HasPrefix(strings.ToLower(in.ContentType), "image/") {
		return nil, Validation("invalid_image", "file must be an image")
	}
	if in.Size <= 0 || in.Size > MaxPhotoBytes {
		return nil, Validation("invalid_image", fmt.Sprintf("image must be between 1 byte and %d bytes", MaxPhotoBytes))
	}
	if in.Order < 0 {
		return nil, Validation("invalid_order", "order must not be negative")
	}
	if _, err := p.d.Accommodations.GetByID(ctx, in.AccommodationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccommodationNotFound
		}
		return nil, err
	}

	key := fmt.Sprintf("accommodations/%d/%s%s", in.AccommodationID, uuid.NewString(), strings.ToLower(path.Ext(in.Filename)))
	url, err := p.d.Store.Put(ctx, key, in.Body, in.Size, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	photo := &model.AccommodationPhoto{
		AccommodationID: in.AccommodationID,
		ObjectKey:       key,
		URL:             url,
		Caption:         strings.TrimSpace(in.Caption),
		SortOrder:       in.Order,
		IsPrimary:       in.IsPrimary,
	}
	err = withTx(ctx, p.d.DB, func(tx *sql.Tx) error {
		if _, err := p.d.Accommodations.GetForUpdateTx(ctx, tx, in.AccommodationID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAccommodationNotFound
			}
			return err
		}
		if photo.IsPrimary {
			if err := p.d.Photos.ClearPrimaryTx(ctx, tx, in.AccommodationID); err != nil {
				return err
			}
		}
		if err := p.d.Photos.CreateTx(ctx, tx, photo); err != nil {
			return err
		}
		return p.audit.recordTx(ctx, tx, actor, entry{
			action:        model.ActionUploadPhoto,
			accommodation: ptr(in.AccommodationID),
			details:       fmt.Sprintf("photo %d uploaded", photo.ID),
		})
	})
	if err != nil {
		if derr := p.d.Store.Delete(context.WithoutCancel(ctx), key); derr != nil {
			log.Warnf("photos: cleanup of %s failed: %v", key, derr)
		}
		return nil, err
	}
	return photo, nil
}

// List returns a listing's photos in display order.
func (p *Photos) List(ctx context.Context, accommodationID uint64) ([]model.AccommodationPhoto, error) {
	if _, err := p.d.Accommodations.GetByID(ctx, accommodationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccommodationNotFound
		}
		return nil, err
	}
	return p.d.Photos.ListByAccommodation(ctx, accommodationID)
}

// SetPrimary makes one photo the listing's primary image.
func (p *Photos) SetPrimary(ctx context.Context, accommodationID, photoID uint64, actor model.Actor) (*model.AccommodationPhoto, error) {
	var photo *model.AccommodationPhoto
	err := withTx(ctx, p.d.DB, func(tx *sql.Tx) error {
		var err error
		if photo, err = p.lockTx(ctx, tx, accommodationID, photoID); err != nil {
			return err
		}
		if err := p.d.Photos.ClearPrimaryTx(ctx, tx, accommodationID); err != nil {
			return err
		}
		if err := p.d.Photos.SetPrimaryTx(ctx, tx, photoID); err != nil {
			return err
		}
		photo.IsPrimary = true
		return p.audit.recordTx(ctx, tx, actor, entry{
			action:        model.ActionUpdateAccommodation,
			accommodation: ptr(accommodationID),
			details:       fmt.Sprintf("photo %d set as primary", photoID),
		})
	})
	if err != nil {
		return nil, err
	}
	return photo, nil
}

// Delete removes a photo row and then its stored object.
func (p *Photos) Delete(ctx context.Context, accommodationID, photoID uint64, actor model.Actor) error {
	var key string
	err := withTx(ctx, p.d.DB, func(tx *sql.Tx) error {
		photo, err := p.lockTx(ctx, tx, accommodationID, photoID)
		if err != nil {
			return err
		}
		key = photo.ObjectKey
		if err := p.d.Photos.DeleteTx(ctx, tx, photoID); err != nil {
			return err
		}
		return p.audit.recordTx(ctx, tx, actor, entry{
			action:        model.ActionDeletePhoto,
			accommodation: ptr(accommodationID),
			details:       fmt.Sprintf("photo %d deleted", photoID),
		})
	})
	if err != nil {
		return err
	}
	if p.d.Store != nil {
		if err := p.d.Store.Delete(ctx, key); err != nil {
			log.Warnf("photos: delete object %s failed: %v", key, err)
		}
	}
	return nil
}

// lockTx loads a photo and checks that it belongs to the listing.
func (p *Photos) lockTx(ctx context.Context, tx *sql.Tx, accommodationID, photoID uint64) (*model.AccommodationPhoto, error) {
	photo, err := p.d.Photos.GetForUpdateTx(ctx, tx, photoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, err
	}
	if photo.AccommodationID != accommodationID {
		return nil, ErrPhotoNotFound
	}
	return photo, nil
}
