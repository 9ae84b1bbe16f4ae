package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"kiraye/models"
	"kiraye/services"
	"kiraye/tui/styles"
)

const formOwner = "form"

type formFocus int

const (
	fieldTitle formFocus = iota
	fieldAddress
	fieldDescription
	fieldRooms
	fieldPrice
	fieldCity
	fieldRegion
	fieldAmenities
	fieldImages
	fieldUpload
	fieldCount
)

var formLabels = []string{"Title", "Address", "Description", "Rooms", "Price", "City", "Region", "Amenities", "Photos", "Add photo"}

type formOptionsMsg struct {
	cities    []models.City
	amenities []models.Amenity
	err       error
}

type editDataMsg struct {
	id   int
	data services.EditData
	err  error
}

// submitMsg reports a submit of form. A result for a form that has since
// been replaced only produces a notification.
type submitMsg struct {
	form *services.ListingForm
	mode services.FormMode
	err  error
}

// Form is the post tab, used both for new listings and for editing one
// the user owns.
type Form struct {
	deps  Deps
	width int

	form      *services.ListingForm
	amenities []models.Amenity
	editID    int
	loading   bool
	loadErr   error

	inputs    []textinput.Model // title, address, description, rooms, price, upload path
	city      picker
	region    picker
	focus     formFocus
	amenity   int
	image     int
	stageErr  string
	spinner   spinner.Model
}

func NewForm(d Deps) Form {
	placeholders := []string{"Bright two-room flat", "street, building", "optional", "2", "650", "/path/to/photo.jpg"}
	inputs := make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		in := textinput.New()
		in.Placeholder = p
		in.Prompt = ""
		in.CharLimit = 200
		inputs[i] = in
	}
	inputs[2].CharLimit = 2000
	inputs[5].CharLimit = 1024

	return Form{
		deps:    d,
		inputs:  inputs,
		city:    newPicker("type a city", ""),
		region:  newPicker("type a region", "pick a city first"),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Pending)),
	}
}

func (f Form) SetSize(w, _ int) Form {
	f.width = w
	return f
}

func (f Form) Typing() bool {
	return f.form != nil && f.focus != fieldAmenities && f.focus != fieldImages
}

// Open prepares the tab for a new listing, or for editing editID.
func (f Form) Open(editID int) (Form, tea.Cmd) {
	if editID == 0 && f.form != nil && f.form.Mode() == services.ModeCreate {
		return f, nil
	}

	f.form, f.loadErr, f.loading = nil, nil, true
	f.editID = editID
	d := f.deps
	load := func() tea.Msg {
		cities, err := d.Catalog.Cities(d.Ctx)
		if err != nil {
			return formOptionsMsg{err: err}
		}
		amenities, err := d.Catalog.Amenities(d.Ctx)
		return formOptionsMsg{cities: cities, amenities: amenities, err: err}
	}
	if editID != 0 {
		load = func() tea.Msg {
			data, err := d.Listings.LoadForEdit(d.Ctx, editID)
			return editDataMsg{id: editID, data: data, err: err}
		}
	}
	return f, tea.Batch(load, f.spinner.Tick)
}

func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	switch msg := msg.(type) {
	case formOptionsMsg:
		if f.editID != 0 {
			return f, nil
		}
		f.loading = false
		if msg.err != nil {
			f.loadErr = msg.err
			return f, nil
		}
		f.amenities = msg.amenities
		return f.install(services.NewCreateForm(msg.cities), nil)

	case editDataMsg:
		if msg.id != f.editID {
			return f, nil
		}
		f.loading = false
		if msg.err != nil {
			f.loadErr = msg.err
			return f, nil
		}
		f.amenities = msg.data.Amenities
		form := services.NewUpdateForm(msg.data.Listing, msg.data.Cities, msg.data.Amenities)
		return f.install(form, &msg.data.Listing)

	case regionsMsg:
		if msg.owner != formOwner || f.form == nil || !f.form.Selection.ApplyRegions(msg.resp) {
			return f, nil
		}
		f.refreshRegionPicker()

	case submitMsg:
		if f.form == nil || msg.form != f.form {
			if msg.err != nil {
				return f, notify(errorText(msg.err), true)
			}
			return f, notify(submittedText(msg.mode), false)
		}
		f.form.Complete(msg.err)
		if msg.err != nil {
			return f, nil
		}
		if msg.mode == services.ModeUpdate {
			return f, tea.Tick(services.UpdateRedirectDelay, func(time.Time) tea.Msg {
				return NavigateMsg{To: TabProfile}
			})
		}
		f, _ = f.fillInputs()
		return f, notify(submittedText(msg.mode), false)

	case SessionMsg:
		if !msg.Identity.LoggedIn() && f.form != nil && f.form.Mode() == services.ModeUpdate {
			f.form, f.editID = nil, 0
		}

	case spinner.TickMsg:
		if !f.loading && (f.form == nil || !f.form.Submitting()) {
			return f, nil
		}
		var cmd tea.Cmd
		f.spinner, cmd = f.spinner.Update(msg)
		return f, cmd

	case tea.KeyMsg:
		if f.form == nil || f.form.Submitting() {
			return f, nil
		}
		return f.updateKeys(msg)
	}
	return f, nil
}

func (f Form) install(form *services.ListingForm, existing *models.Listing) (Form, tea.Cmd) {
	f.form = form
	f.city.SetOptions(cityOptions(form.Selection.Cities()))
	f.amenity, f.image, f.stageErr = 0, 0, ""

	var cmds []tea.Cmd
	if existing != nil {
		if req, ok := form.PresetLocation(*existing); ok {
			cmds = append(cmds, fetchRegions(f.deps, formOwner, req))
		}
	}
	f, focus := f.fillInputs()
	return f, tea.Batch(append(cmds, focus)...)
}

// fillInputs copies the form's values into the text fields.
func (f Form) fillInputs() (Form, tea.Cmd) {
	vals := []string{f.form.Title, f.form.Address, f.form.Description, f.form.Rooms, f.form.Price, ""}
	for i, v := range vals {
		f.inputs[i].SetValue(v)
	}
	f.city.Select(f.form.Selection.CityID())
	f.refreshRegionPicker()
	return f.setFocus(fieldTitle)
}

func (f *Form) refreshRegionPicker() {
	sel := f.form.Selection
	f.region.SetOptions(regionOptions(sel.Regions()))
	f.region.Select(sel.RegionID())
	f.region.disabled = !sel.RegionEnabled()
	if sel.Pending() {
		f.region.empty = "loading regions…"
	} else if err := sel.Err(); err != nil {
		f.region.empty = errorText(err)
	} else {
		f.region.empty = "pick a city first"
	}
}

func inputIndex(ff formFocus) (int, bool) {
	switch {
	case ff <= fieldPrice:
		return int(ff), true
	case ff == fieldUpload:
		return 5, true
	}
	return 0, false
}

func (f Form) setFocus(ff formFocus) (Form, tea.Cmd) {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.city.Blur()
	f.region.Blur()
	f.focus = ff

	if i, ok := inputIndex(ff); ok {
		return f, f.inputs[i].Focus()
	}
	switch ff {
	case fieldCity:
		return f, f.city.Focus()
	case fieldRegion:
		return f, f.region.Focus()
	}
	return f, nil
}

func (f Form) updateKeys(msg tea.KeyMsg) (Form, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		if msg.String() == "tab" || !f.listFocused() {
			return f.setFocus((f.focus + 1) % fieldCount)
		}
	case "shift+tab", "up":
		if msg.String() == "shift+tab" || !f.listFocused() {
			return f.setFocus((f.focus + fieldCount - 1) % fieldCount)
		}
	case "ctrl+s":
		return f.submit()
	case "esc":
		f.form.ClearStatus()
		f.stageErr = ""
		if f.form.Mode() == services.ModeCreate {
			f.form.Reset()
			return f.fillInputs()
		}
		return f, navigate(TabProfile, 0)
	}

	switch f.focus {
	case fieldCity:
		changed, cmd := f.city.Update(msg)
		if !changed {
			return f, cmd
		}
		req, ok := f.form.Selection.SetCity(f.city.Selected().ID)
		f.refreshRegionPicker()
		if ok {
			cmd = tea.Batch(cmd, fetchRegions(f.deps, formOwner, req))
		}
		return f, cmd

	case fieldRegion:
		changed, cmd := f.region.Update(msg)
		if changed {
			f.form.Selection.SetRegion(f.region.Selected().ID)
		}
		return f, cmd

	case fieldAmenities:
		switch msg.String() {
		case "up", "k":
			f.amenity = max(f.amenity-1, 0)
		case "down", "j":
			f.amenity = min(f.amenity+1, max(len(f.amenities)-1, 0))
		case " ", "enter":
			if f.amenity < len(f.amenities) {
				f.form.ToggleAmenity(f.amenities[f.amenity].ID)
			}
		}
		return f, nil

	case fieldImages:
		kept := f.form.KeptImages()
		switch msg.String() {
		case "up", "k":
			f.image = max(f.image-1, 0)
		case "down", "j":
			f.image = min(f.image+1, max(len(kept)-1, 0))
		case "x", "delete", "backspace":
			if f.image < len(kept) {
				f.form.RemoveImage(kept[f.image].ID)
				f.image = min(f.image, max(len(kept)-2, 0))
			}
		}
		return f, nil

	case fieldUpload:
		if msg.String() == "enter" {
			path := strings.TrimSpace(f.inputs[5].Value())
			if path == "" {
				return f, nil
			}
			f.stageErr = ""
			if err := f.form.StageFile(path); err != nil {
				f.stageErr = errorText(err)
				return f, nil
			}
			f.inputs[5].SetValue("")
			return f, nil
		}
	}

	i, ok := inputIndex(f.focus)
	if !ok {
		return f, nil
	}
	if msg.String() == "enter" {
		return f.setFocus(f.focus + 1)
	}
	var cmd tea.Cmd
	f.inputs[i], cmd = f.inputs[i].Update(msg)
	return f, cmd
}

func (f Form) listFocused() bool {
	return f.focus == fieldAmenities || f.focus == fieldImages
}

func (f Form) submit() (Form, tea.Cmd) {
	f.form.Title = f.inputs[0].Value()
	f.form.Address = f.inputs[1].Value()
	f.form.Description = f.inputs[2].Value()
	f.form.Rooms = f.inputs[3].Value()
	f.form.Price = f.inputs[4].Value()

	payload, err := f.form.BeginSubmit()
	if err != nil {
		return f, nil
	}
	form, mode, listings, ctx := f.form, f.form.Mode(), f.deps.Listings, f.deps.Ctx
	return f, tea.Batch(
		func() tea.Msg { return submitMsg{form: form, mode: mode, err: listings.Submit(ctx, mode, payload)} },
		f.spinner.Tick,
	)
}

func submittedText(mode services.FormMode) string {
	if mode == services.ModeUpdate {
		return "Listing updated."
	}
	return "Listing published."
}

func (f Form) View() string {
	if !f.deps.Session.LoggedIn() {
		return styles.Muted.Render("Log in on the Account tab to post a listing.")
	}
	if f.loading {
		return f.spinner.View() + " loading…"
	}
	if f.loadErr != nil {
		return styles.Error.Render(errorText(f.loadErr))
	}
	if f.form == nil {
		return ""
	}

	title := "New listing"
	if f.form.Mode() == services.ModeUpdate {
		title = fmt.Sprintf("Edit listing #%d", f.form.ID())
	}

	fieldKeys := []string{services.FieldTitle, services.FieldAddress, "", services.FieldRooms, services.FieldPrice, services.FieldCity}
	var rows []string
	for ff := fieldTitle; ff < fieldCount; ff++ {
		var value string
		switch ff {
		case fieldCity:
			value = f.city.View()
		case fieldRegion:
			value = f.region.View()
		case fieldAmenities:
			value = f.renderAmenities()
		case fieldImages:
			value = f.renderImages()
		case fieldUpload:
			value = f.inputs[5].View()
			if f.stageErr != "" {
				value += "  " + styles.Error.Render(f.stageErr)
			}
		default:
			value = f.inputs[ff].View()
		}
		if int(ff) < len(fieldKeys) && fieldKeys[ff] != "" {
			if msg := f.form.FieldError(fieldKeys[ff]); msg != "" {
				value += "  " + styles.Error.Render(msg)
			}
		}
		rows = append(rows, f.label(ff)+value)
	}

	status := styles.Muted.Render("tab next  ctrl+s save  esc cancel")
	switch {
	case f.form.Submitting():
		status = f.spinner.View() + " saving…"
	case f.form.Succeeded() && f.form.Mode() == services.ModeUpdate:
		status = styles.Success.Render("Listing updated.")
	case f.form.Succeeded():
		status = styles.Success.Render("Listing published.")
	case f.form.Err() != nil:
		status = styles.Error.Render(errorText(f.form.Err()))
	}

	return styles.Title.Render(title) + "\n" +
		styles.Card.Width(max(f.width-2, 40)).Render(strings.Join(rows, "\n")) + "\n" + status
}

func (f Form) label(ff formFocus) string {
	if f.focus == ff {
		return styles.LabelFocused.Render(formLabels[ff])
	}
	return styles.Label.Render(formLabels[ff])
}

func (f Form) renderAmenities() string {
	if len(f.amenities) == 0 {
		return styles.Muted.Render("none available")
	}
	var parts []string
	for i, a := range f.amenities {
		box := "[ ]"
		if f.form.AmenitySelected(a.ID) {
			box = "[x]"
		}
		item := box + " " + a.Name
		if f.focus == fieldAmenities && i == f.amenity {
			item = styles.TableSelected.Render(item)
		}
		parts = append(parts, item)
	}
	return strings.Join(parts, "  ")
}

func (f Form) renderImages() string {
	kept := f.form.KeptImages()
	var parts []string
	for i, img := range kept {
		item := truncate(img.URL, 40)
		if f.focus == fieldImages && i == f.image {
			item = styles.TableSelected.Render(item)
		}
		parts = append(parts, item)
	}
	for _, p := range f.form.Staged() {
		parts = append(parts, styles.Pending.Render("+ "+p.Name))
	}
	if len(parts) == 0 {
		return styles.Muted.Render("no photos")
	}
	hint := ""
	if f.focus == fieldImages && len(kept) > 0 {
		hint = "\n" + strings.Repeat(" ", 12) + styles.Muted.Render("x remove")
	}
	return strings.Join(parts, "\n"+strings.Repeat(" ", 12)) + hint
}
