package services

import (
	"context"
	"net/url"

	"kiraye/api"
	"kiraye/models"
)

// ReferenceAPI serves the static option lists.
type ReferenceAPI interface {
	Cities(ctx context.Context) ([]models.City, error)
	Regions(ctx context.Context, cityID int) ([]models.Region, error)
	Amenities(ctx context.Context) ([]models.Amenity, error)
}

type ListingAPI interface {
	Filter(ctx context.Context, q url.Values) (models.PageResult, error)
	Listing(ctx context.Context, id int) (models.Listing, error)
	OwnedListing(ctx context.Context, token string, id int) (models.Listing, error)
	OwnListings(ctx context.Context, token string) ([]models.Listing, error)
	CreateListing(ctx context.Context, token string, p *api.ListingPayload) error
	UpdateListing(ctx context.Context, token string, p *api.ListingPayload) error
	SoftDelete(ctx context.Context, token string, id int) error
}

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
	Register(ctx context.Context, r api.RegisterRequest) (api.RegisterResponse, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) (string, error)
	ChangePassword(ctx context.Context, token, current, next string) (string, error)
	DeleteAccount(ctx context.Context, token string) error
	ConfirmMakler(ctx context.Context, sessionID string) (string, error)
}

var (
	_ ReferenceAPI = (*api.Client)(nil)
	_ ListingAPI   = (*api.Client)(nil)
	_ AuthAPI      = (*api.Client)(nil)
)
