package services

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"kiraye/models"
	"kiraye/session"
)

var ErrNotOwner = errors.New("you can only delete your own listings")

const (
	DeletedNotice      = "Post deleted successfully."
	DeletedNoticeAfter = 2 * time.Second
)

// OwnRequest is one fetch of the signed-in user's listings.
type OwnRequest struct {
	Gen uint64
}

type OwnResponse struct {
	Request OwnRequest
	Items   []models.Listing
	Err     error
}

// DeleteRequest carries what is needed to undo an optimistic removal.
type DeleteRequest struct {
	ID    int
	index int
	item  models.Listing
	gen   uint64
}

// Profile holds the user's own listings and gates soft deletes on
// ownership.
type Profile struct {
	api     ListingAPI
	session *session.State
	logger  *slog.Logger

	items   []models.Listing
	loaded  bool
	loading bool
	err     error
	notice  string
	gen     uint64
}

func NewProfile(listings ListingAPI, sess *session.State, logger *slog.Logger) *Profile {
	return &Profile{api: listings, session: sess, logger: logger}
}

func (p *Profile) Items() []models.Listing { return p.items }
func (p *Profile) Loading() bool           { return p.loading }
func (p *Profile) Err() error              { return p.err }
func (p *Profile) Notice() string          { return p.notice }
func (p *Profile) ClearNotice()            { p.notice = "" }

func (p *Profile) Identity() models.Identity {
	return p.session.Identity()
}

// Load starts a fetch of the user's listings. Without a session it fails
// at once and the list is emptied.
func (p *Profile) Load() (OwnRequest, error) {
	if _, err := p.session.RequireToken(); err != nil {
		p.Reset()
		p.err = err
		return OwnRequest{}, err
	}
	p.gen++
	p.loading = true
	p.err = nil
	return OwnRequest{Gen: p.gen}, nil
}

// Reset forgets everything, e.g. after logout.
func (p *Profile) Reset() {
	p.gen++
	p.items = nil
	p.loaded = false
	p.loading = false
	p.err = nil
	p.notice = ""
}

func (p *Profile) Fetch(ctx context.Context, req OwnRequest) OwnResponse {
	token, err := p.session.RequireToken()
	if err != nil {
		return OwnResponse{Request: req, Err: err}
	}
	items, err := p.api.OwnListings(ctx, token)
	return OwnResponse{Request: req, Items: items, Err: err}
}

func (p *Profile) Apply(resp OwnResponse) bool {
	if resp.Request.Gen != p.gen {
		return false
	}
	p.loading = false
	if resp.Err != nil {
		p.items = []models.Listing{}
		p.err = resp.Err
		return true
	}
	p.items = resp.Items
	p.loaded = true
	p.err = nil
	return true
}

// Owns reports whether the signed-in user owns l, either because it is in
// their listing set or because its owner id matches theirs.
func (p *Profile) Owns(l models.Listing) bool {
	id := p.session.Identity()
	if !id.LoggedIn() {
		return false
	}
	if slices.ContainsFunc(p.items, func(own models.Listing) bool { return own.ID == l.ID }) {
		return true
	}
	return l.OwnerID != "" && l.OwnerID == id.UserID
}

// BeginDelete checks ownership and removes the listing from the local list
// before the server call.
func (p *Profile) BeginDelete(id int) (DeleteRequest, error) {
	if _, err := p.session.RequireToken(); err != nil {
		return DeleteRequest{}, err
	}

	i := slices.IndexFunc(p.items, func(l models.Listing) bool { return l.ID == id })
	if i < 0 {
		return DeleteRequest{}, ErrNotOwner
	}

	req := DeleteRequest{ID: id, index: i, item: p.items[i], gen: p.gen}
	p.items = slices.Delete(slices.Clone(p.items), i, i+1)
	p.notice = ""
	p.err = nil
	return req, nil
}

// SoftDelete performs the server call for a listing that passed an
// ownership check.
func (p *Profile) SoftDelete(ctx context.Context, id int) error {
	token, err := p.session.RequireToken()
	if err != nil {
		return err
	}
	if err := p.api.SoftDelete(ctx, token, id); err != nil {
		p.logger.Warn("soft delete", "id", id, "error", err)
		return err
	}
	p.logger.Info("listing deleted", "id", id)
	return nil
}

// FinishDelete puts the listing back if the server refused. It reports
// false when the list was reloaded or reset since BeginDelete, in which
// case nothing is touched.
func (p *Profile) FinishDelete(req DeleteRequest, err error) bool {
	if req.gen != p.gen {
		return false
	}
	if err != nil {
		at := min(req.index, len(p.items))
		p.items = slices.Insert(slices.Clone(p.items), at, req.item)
		p.err = err
		return true
	}
	p.notice = DeletedNotice
	return true
}
