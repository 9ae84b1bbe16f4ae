package services

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kiraye/api"
	"kiraye/models"
)

type FormMode int

const (
	ModeCreate FormMode = iota
	ModeUpdate
)

// UpdateRedirectDelay is how long a successful update stays on screen
// before returning to the profile.
const UpdateRedirectDelay = 1500 * time.Millisecond

var ErrSubmitting = errors.New("already submitting")

// Form field keys, matching the server's model-state keys.
const (
	FieldTitle   = "Title"
	FieldAddress = "Address"
	FieldRooms   = "Rooms"
	FieldPrice   = "Price"
	FieldCity    = "CityId"
	FieldImages  = "NewImages"
)

// ListingForm collects a create or update submission. Scalar inputs are
// kept as typed so a failed submit never loses what the user entered.
type ListingForm struct {
	Title       string
	Address     string
	Description string
	Rooms       string
	Price       string
	Selection   *Selection

	mode      FormMode
	id        int
	amenities map[int]bool
	existing  []models.Image
	removed   []int
	staged    []api.FilePart

	submitting bool
	success    bool
	err        error
}

func NewCreateForm(cities []models.City) *ListingForm {
	return &ListingForm{
		mode:      ModeCreate,
		Selection: NewSelection(cities),
		amenities: map[int]bool{},
	}
}

// NewUpdateForm prefills from an existing listing. Amenities are matched by
// name because the detail endpoint only returns names.
func NewUpdateForm(l models.Listing, cities []models.City, amenities []models.Amenity) *ListingForm {
	f := &ListingForm{
		mode:        ModeUpdate,
		id:          l.ID,
		Title:       l.Title,
		Address:     l.Address,
		Description: l.Description,
		Rooms:       strconv.Itoa(l.Rooms),
		Price:       l.Price.String(),
		Selection:   NewSelection(cities),
		amenities:   map[int]bool{},
		existing:    slices.Clone(l.Images),
	}
	for _, a := range amenities {
		if slices.Contains(l.AmenityNames, a.Name) {
			f.amenities[a.ID] = true
		}
	}
	return f
}

// PresetLocation starts the region fetch for an update form's listing.
func (f *ListingForm) PresetLocation(l models.Listing) (RegionRequest, bool) {
	cityID := l.CityID
	if cityID == 0 {
		for _, c := range f.Selection.Cities() {
			if Fold(c.Name) == Fold(l.CityName) {
				cityID = c.ID
				break
			}
		}
	}
	if cityID == 0 {
		return RegionRequest{}, false
	}
	return f.Selection.Preset(cityID, l.RegionID, l.RegionName)
}

func (f *ListingForm) Mode() FormMode    { return f.mode }
func (f *ListingForm) ID() int           { return f.id }
func (f *ListingForm) Submitting() bool  { return f.submitting }
func (f *ListingForm) Succeeded() bool   { return f.success }
func (f *ListingForm) Err() error        { return f.err }
func (f *ListingForm) ClearStatus()      { f.err, f.success = nil, false }
func (f *ListingForm) Staged() []api.FilePart {
	return f.staged
}

// FieldError returns the message for one field from the last failure.
func (f *ListingForm) FieldError(field string) string {
	if e, ok := api.As(f.err); ok {
		return e.FieldError(field)
	}
	return ""
}

// ToggleAmenity flips one amenity and returns whether it is now selected.
func (f *ListingForm) ToggleAmenity(id int) bool {
	if f.amenities[id] {
		delete(f.amenities, id)
		return false
	}
	f.amenities[id] = true
	return true
}

func (f *ListingForm) AmenitySelected(id int) bool {
	return f.amenities[id]
}

func (f *ListingForm) AmenityIDs() []int {
	ids := make([]int, 0, len(f.amenities))
	for id := range f.amenities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// StageImage adds an upload after checking it really is an image.
func (f *ListingForm) StageImage(name string, data []byte) error {
	ct, err := sniffImage(name, data)
	if err != nil {
		return err
	}
	f.staged = append(f.staged, api.FilePart{Name: name, ContentType: ct, Data: data})
	return nil
}

// StageFile reads and stages an image from disk.
func (f *ListingForm) StageFile(path string) error {
	part, err := ReadImage(path)
	if err != nil {
		return err
	}
	f.staged = append(f.staged, part)
	return nil
}

// RemoveImage marks a persisted image for deletion. Unknown or already
// removed ids are ignored.
func (f *ListingForm) RemoveImage(id int) bool {
	if f.mode != ModeUpdate || slices.Contains(f.removed, id) {
		return false
	}
	if !slices.ContainsFunc(f.existing, func(img models.Image) bool { return img.ID == id }) {
		return false
	}
	f.removed = append(f.removed, id)
	return true
}

func (f *ListingForm) RemovedImageIDs() []int {
	return slices.Clone(f.removed)
}

// KeptImages are the persisted images not marked for removal.
func (f *ListingForm) KeptImages() []models.Image {
	kept := make([]models.Image, 0, len(f.existing))
	for _, img := range f.existing {
		if !slices.Contains(f.removed, img.ID) {
			kept = append(kept, img)
		}
	}
	return kept
}

// Validate checks the inputs that must hold before anything is sent.
func (f *ListingForm) Validate() (rooms int, price decimal.Decimal, err error) {
	fields := map[string]string{}

	if strings.TrimSpace(f.Title) == "" {
		fields[FieldTitle] = "is required"
	}

	rooms, convErr := strconv.Atoi(strings.TrimSpace(f.Rooms))
	if convErr != nil || rooms < 0 {
		fields[FieldRooms] = "must be a whole number ≥ 0"
	}

	price, decErr := decimal.NewFromString(strings.TrimSpace(f.Price))
	if decErr != nil || price.IsNegative() {
		fields[FieldPrice] = "must be a number ≥ 0"
	}

	if f.mode == ModeCreate && f.Selection.CityID() == 0 {
		fields[FieldCity] = "choose a city"
	}

	if len(fields) > 0 {
		return 0, decimal.Zero, api.Validation(fields)
	}
	return rooms, price, nil
}

// BeginSubmit validates and builds the multipart payload. On a validation
// failure the error is recorded on the form and no payload is returned.
func (f *ListingForm) BeginSubmit() (*api.ListingPayload, error) {
	if f.submitting {
		return nil, ErrSubmitting
	}

	rooms, price, err := f.Validate()
	if err != nil {
		f.err = err
		f.success = false
		return nil, err
	}

	p := &api.ListingPayload{
		Title:       strings.TrimSpace(f.Title),
		Address:     strings.TrimSpace(f.Address),
		Description: f.Description,
		Rooms:       rooms,
		Price:       price,
		CityID:      f.Selection.CityID(),
		RegionID:    f.Selection.RegionID(),
		AmenityIDs:  f.AmenityIDs(),
		NewImages:   slices.Clone(f.staged),
	}
	if f.mode == ModeUpdate {
		p.ID = f.id
		for _, img := range f.KeptImages() {
			p.ImageURLs = append(p.ImageURLs, img.URL)
		}
		p.DeletedImageIDs = f.RemovedImageIDs()
	}

	f.submitting = true
	f.err = nil
	f.success = false
	return p, nil
}

// Complete records the outcome of a submit. A successful create clears the
// form for the next listing; a successful update stays put with the
// success flag set until the caller navigates away.
func (f *ListingForm) Complete(err error) {
	f.submitting = false
	if err != nil {
		f.err = err
		return
	}

	if f.mode == ModeCreate {
		cities := f.Selection.Cities()
		*f = *NewCreateForm(cities)
	} else {
		f.staged = nil
		f.existing = f.KeptImages()
		f.removed = nil
	}
	f.success = true
}

// Reset clears a create form.
func (f *ListingForm) Reset() {
	if f.mode == ModeCreate {
		*f = *NewCreateForm(f.Selection.Cities())
	}
}
