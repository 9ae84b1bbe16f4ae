package services

import (
	"context"
	"log/slog"

	"kiraye/api"
	"kiraye/models"
	"kiraye/session"
)

// Listings runs the create, update and detail calls.
type Listings struct {
	api     ListingAPI
	catalog *Catalog
	session *session.State
	logger  *slog.Logger
}

func NewListings(listings ListingAPI, catalog *Catalog, sess *session.State, logger *slog.Logger) *Listings {
	return &Listings{api: listings, catalog: catalog, session: sess, logger: logger}
}

func (s *Listings) Get(ctx context.Context, id int) (models.Listing, error) {
	return s.api.Listing(ctx, id)
}

// Submit sends a payload produced by ListingForm.BeginSubmit.
func (s *Listings) Submit(ctx context.Context, mode FormMode, p *api.ListingPayload) error {
	token, err := s.session.RequireToken()
	if err != nil {
		return err
	}

	if mode == ModeUpdate {
		err = s.api.UpdateListing(ctx, token, p)
	} else {
		err = s.api.CreateListing(ctx, token, p)
	}
	if err != nil {
		s.logger.Warn("submit listing", "id", p.ID, "error", err)
		return err
	}

	s.logger.Info("listing saved", "id", p.ID, "title", p.Title,
		"new_images", len(p.NewImages), "removed_images", len(p.DeletedImageIDs))
	return nil
}

// EditData is everything an update form needs.
type EditData struct {
	Listing   models.Listing
	Cities    []models.City
	Amenities []models.Amenity
}

// LoadForEdit fetches a listing through the owner endpoint together with
// the option lists. Listings of other users come back as api.ErrNoAccess.
func (s *Listings) LoadForEdit(ctx context.Context, id int) (EditData, error) {
	token, err := s.session.RequireToken()
	if err != nil {
		return EditData{}, err
	}

	l, err := s.api.OwnedListing(ctx, token, id)
	if err != nil {
		return EditData{}, err
	}

	cities, err := s.catalog.Cities(ctx)
	if err != nil {
		return EditData{}, err
	}
	amenities, err := s.catalog.Amenities(ctx)
	if err != nil {
		// the form still works without the amenity list
		s.logger.Warn("load amenities", "error", err)
	}
	return EditData{Listing: l, Cities: cities, Amenities: amenities}, nil
}
