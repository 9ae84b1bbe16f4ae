package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"kiraye/api"
	"kiraye/logging"
	"kiraye/models"
)

func existingListing() models.Listing {
	return models.Listing{
		ID:           3,
		Title:        "Sea view flat",
		Address:      "Neftçilər pr. 12",
		CityName:     "Bakı",
		RegionName:   "Səbail",
		Rooms:        2,
		Price:        decimal.RequireFromString("700"),
		Images:       []models.Image{{ID: 6, URL: "https://cdn/6.jpg"}, {ID: 7, URL: "https://cdn/7.jpg"}},
		AmenityNames: []string{"Wi-Fi", "Parking"},
		OwnerID:      "u1",
	}
}

var testAmenities = []models.Amenity{{ID: 1, Name: "Wi-Fi"}, {ID: 2, Name: "Balcony"}, {ID: 3, Name: "Parking"}}

func TestUpdateForm_PrefillsAmenitiesByName(t *testing.T) {
	f := NewUpdateForm(existingListing(), testCities, testAmenities)
	require.Equal(t, []int{1, 3}, f.AmenityIDs())
	require.Equal(t, "2", f.Rooms)
	require.Equal(t, "700", f.Price)
}

func TestUpdateForm_RemoveImageAndStageNew(t *testing.T) {
	f := NewUpdateForm(existingListing(), testCities, testAmenities)

	require.True(t, f.RemoveImage(7))
	require.False(t, f.RemoveImage(7), "already removed")
	require.False(t, f.RemoveImage(99), "not a persisted image")
	require.NoError(t, f.StageImage("balcony.png", pngHeader))

	p, err := f.BeginSubmit()
	require.NoError(t, err)
	require.Equal(t, 3, p.ID)
	require.Equal(t, []int{7}, p.DeletedImageIDs)
	require.Equal(t, []string{"https://cdn/6.jpg"}, p.ImageURLs)
	require.Len(t, p.NewImages, 1)
	require.Equal(t, "image/png", p.NewImages[0].ContentType)
	require.True(t, f.Submitting())

	_, err = f.BeginSubmit()
	require.ErrorIs(t, err, ErrSubmitting)
}

func TestUpdateForm_SubmitSendsMultipart(t *testing.T) {
	env := newEnv(t)
	env.login(t, "u1")
	svc := NewListings(env.client, nil, env.session, logging.Discard())

	f := NewUpdateForm(existingListing(), testCities, testAmenities)
	f.RemoveImage(7)
	require.NoError(t, f.StageImage("new.png", pngHeader))

	p, err := f.BeginSubmit()
	require.NoError(t, err)
	err = svc.Submit(context.Background(), f.Mode(), p)
	f.Complete(err)
	require.NoError(t, err)
	require.True(t, f.Succeeded())
	require.Equal(t, "Sea view flat", f.Title)

	reqs := env.srv.Requests("/House/Update")
	require.Len(t, reqs, 1)
	require.Equal(t, []string{"7"}, reqs[0].Form["DeletedImageIds"])
	require.Equal(t, []string{"https://cdn/6.jpg"}, reqs[0].Form["ImageUrls"])
	require.Equal(t, []string{"new.png"}, reqs[0].Files["NewImages"])
	require.Equal(t, []string{"1", "3"}, reqs[0].Form["AmenityIds"])
}

func TestForm_ValidationBlocksSubmit(t *testing.T) {
	env := newEnv(t)
	env.login(t, "u1")

	f := NewCreateForm(testCities)
	f.Title = "Flat"
	f.Rooms = "abc"
	f.Price = "12,5"
	f.Selection.SetCity(1)

	_, err := f.BeginSubmit()
	require.Error(t, err)
	require.NotEmpty(t, f.FieldError(FieldRooms))
	require.NotEmpty(t, f.FieldError(FieldPrice))
	require.False(t, f.Submitting())
	require.Equal(t, "abc", f.Rooms, "input kept")
	require.Zero(t, env.srv.Total())
}

func TestForm_ToggleAmenity(t *testing.T) {
	f := NewCreateForm(nil)
	require.True(t, f.ToggleAmenity(2))
	require.True(t, f.ToggleAmenity(1))
	require.False(t, f.ToggleAmenity(2))
	require.Equal(t, []int{1}, f.AmenityIDs())
}

func TestForm_RejectsNonImages(t *testing.T) {
	f := NewCreateForm(nil)
	require.ErrorIs(t, f.StageImage("notes.txt", []byte("hello world")), ErrNotImage)
	require.ErrorIs(t, f.StageImage("fake.png", []byte("%PDF-1.4")), ErrNotImage)
	require.Empty(t, f.Staged())

	path := filepath.Join(t.TempDir(), "room.jpg")
	require.NoError(t, os.WriteFile(path, []byte("\xff\xd8\xff\xe0\x00\x10JFIF"), 0o644))
	require.NoError(t, f.StageFile(path))
	require.Equal(t, "image/jpeg", f.Staged()[0].ContentType)
	require.Equal(t, "room.jpg", f.Staged()[0].Name)
}

func TestCreateForm_SuccessResets(t *testing.T) {
	f := NewCreateForm(testCities)
	f.Title, f.Rooms, f.Price = "Flat", "1", "400"
	f.Selection.SetCity(2)
	f.ToggleAmenity(1)

	_, err := f.BeginSubmit()
	require.NoError(t, err)
	f.Complete(nil)

	require.True(t, f.Succeeded())
	require.Empty(t, f.Title)
	require.Empty(t, f.AmenityIDs())
	require.Zero(t, f.Selection.CityID())
	require.Equal(t, testCities, f.Selection.Cities())
}

func TestForm_ServerFailureKeepsData(t *testing.T) {
	f := NewCreateForm(testCities)
	f.Title, f.Rooms, f.Price = "Flat", "1", "400"
	f.Selection.SetCity(2)

	_, err := f.BeginSubmit()
	require.NoError(t, err)
	f.Complete(&api.Error{Kind: api.KindHTTP, Status: 400, Fields: map[string][]string{"Title": {"too short"}}})

	require.False(t, f.Succeeded())
	require.Equal(t, "Flat", f.Title)
	require.Equal(t, 2, f.Selection.CityID())
	require.Equal(t, "too short", f.FieldError(FieldTitle))
}

func TestListings_SubmitWithoutSessionMakesNoRequest(t *testing.T) {
	env := newEnv(t)
	svc := NewListings(env.client, nil, env.session, logging.Discard())

	f := NewCreateForm(testCities)
	f.Title, f.Rooms, f.Price = "Flat", "1", "400"
	f.Selection.SetCity(1)
	p, err := f.BeginSubmit()
	require.NoError(t, err)

	err = svc.Submit(context.Background(), f.Mode(), p)
	require.True(t, errors.Is(err, api.ErrUnauthenticated))
	require.Zero(t, env.srv.Total())
}

func TestListings_LoadForEdit(t *testing.T) {
	env := newEnv(t)
	env.login(t, "u1")
	env.srv.Cities = testCities
	env.srv.Amenities = testAmenities
	env.srv.Listings = []models.Listing{existingListing(), {ID: 4, OwnerID: "u2"}}

	catalog := NewCatalog(env.client, env.store, 0, logging.Discard())
	svc := NewListings(env.client, catalog, env.session, logging.Discard())

	data, err := svc.LoadForEdit(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, "Sea view flat", data.Listing.Title)
	require.Len(t, data.Amenities, 3)

	f := NewUpdateForm(data.Listing, data.Cities, data.Amenities)
	req, ok := f.PresetLocation(data.Listing)
	require.True(t, ok)
	require.Equal(t, 1, req.CityID)

	_, err = svc.LoadForEdit(context.Background(), 4)
	require.ErrorIs(t, err, api.ErrNoAccess)
}
