package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FilePart is a staged upload.
type FilePart struct {
	Name        string
	ContentType string
	Data        []byte
}

// ListingPayload is the multipart body of House/Create and House/Update.
// ID is zero for creates.
type ListingPayload struct {
	ID              int
	Title           string
	Address         string
	Description     string
	Rooms           int
	Price           decimal.Decimal
	CityID          int
	RegionID        int
	ImageURLs       []string
	DeletedImageIDs []int
	AmenityIDs      []int
	NewImages       []FilePart
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode writes the payload as multipart/form-data. Repeated fields get
// one part per value. The returned content type carries the writer's
// boundary.
func (p *ListingPayload) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	var err error
	write := func(name, value string) {
		if err == nil {
			err = w.WriteField(name, value)
		}
	}

	if p.ID != 0 {
		write("Id", strconv.Itoa(p.ID))
	}
	write("Title", p.Title)
	write("Address", p.Address)
	write("Description", p.Description)
	write("Rooms", strconv.Itoa(p.Rooms))
	write("Price", p.Price.String())
	if p.CityID != 0 {
		write("CityId", strconv.Itoa(p.CityID))
	}
	if p.RegionID != 0 {
		write("RegionId", strconv.Itoa(p.RegionID))
	}
	for _, u := range p.ImageURLs {
		write("ImageUrls", u)
	}
	for _, id := range p.DeletedImageIDs {
		write("DeletedImageIds", strconv.Itoa(id))
	}
	for _, id := range p.AmenityIDs {
		write("AmenityIds", strconv.Itoa(id))
	}
	if err != nil {
		return nil, "", err
	}

	for _, img := range p.NewImages {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="NewImages"; filename="%s"`, quoteEscaper.Replace(img.Name)))
		ct := img.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
