package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"kiraye/models"
)

// Filter runs the public listing search. q carries the Filter query
// parameters including PageNumber and PageSize.
func (c *Client) Filter(ctx context.Context, q url.Values) (models.PageResult, error) {
	res, err := getJSON[models.PageResult](ctx, c, request{
		method: http.MethodGet,
		path:   "/House/Filter",
		query:  q,
	})
	if err != nil {
		return models.PageResult{}, err
	}
	if res.Items == nil {
		res.Items = []models.Listing{}
	}
	return res, nil
}

func (c *Client) Listing(ctx context.Context, id int) (models.Listing, error) {
	return getJSON[models.Listing](ctx, c, request{
		method: http.MethodGet,
		path:   "/House/Get/" + strconv.Itoa(id),
	})
}

// OwnedListing fetches a listing for editing. Any auth or not-found status
// means the caller may not edit it.
func (c *Client) OwnedListing(ctx context.Context, token string, id int) (models.Listing, error) {
	l, err := getJSON[models.Listing](ctx, c, request{
		method: http.MethodGet,
		path:   "/House/GetByOwner/" + strconv.Itoa(id),
		token:  token,
		auth:   true,
	})
	// ErrUnauthenticated itself means no token was given; that stays as is.
	if err != nil && err != error(ErrUnauthenticated) {
		if apiErr, ok := As(err); ok {
			switch apiErr.Status {
			case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
				e := *ErrNoAccess
				e.RequestID = apiErr.RequestID
				return models.Listing{}, &e
			}
		}
	}
	return l, err
}

type ownListings struct {
	Items []models.Listing `json:"items"`
}

// OwnListings returns every listing of the token's owner.
func (c *Client) OwnListings(ctx context.Context, token string) ([]models.Listing, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/House/GetAllByOwnerId",
		token:  token,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}

	if wrapped, ok := Decode[ownListings](resp.body).Value(); ok && wrapped.Items != nil {
		return wrapped.Items, nil
	}
	if list, ok := Decode[[]models.Listing](resp.body).Value(); ok {
		return list, nil
	}
	return []models.Listing{}, nil
}

func (c *Client) CreateListing(ctx context.Context, token string, p *ListingPayload) error {
	return c.sendListing(ctx, http.MethodPost, "/House/Create", token, p)
}

func (c *Client) UpdateListing(ctx context.Context, token string, p *ListingPayload) error {
	return c.sendListing(ctx, http.MethodPut, "/House/Update", token, p)
}

func (c *Client) sendListing(ctx context.Context, method, path, token string, p *ListingPayload) error {
	if token == "" {
		return ErrUnauthenticated
	}

	body, contentType, err := p.Encode()
	if err != nil {
		return err
	}

	_, err = c.do(ctx, request{
		method:      method,
		path:        path,
		body:        body,
		contentType: contentType,
		token:       token,
		auth:        true,
		upload:      true,
	})
	return err
}

func (c *Client) SoftDelete(ctx context.Context, token string, id int) error {
	_, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/House/SoftDelete/" + strconv.Itoa(id),
		token:  token,
		auth:   true,
	})
	return err
}
