package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"kiraye/api"
	"kiraye/models"
	"kiraye/services"
)

type listingFlags struct {
	title, address, description string
	rooms, price                string
	city, region                string
	amenities, images           []string
	removeImages                []int
}

func (lf *listingFlags) register(cmd *cobra.Command, update bool) {
	f := cmd.Flags()
	f.StringVar(&lf.title, "title", "", "Title")
	f.StringVar(&lf.address, "address", "", "Street address")
	f.StringVar(&lf.description, "description", "", "Description")
	f.StringVar(&lf.rooms, "rooms", "", "Number of rooms")
	f.StringVar(&lf.price, "price", "", "Monthly price in AZN")
	f.StringVar(&lf.city, "city", "", "City name")
	f.StringVar(&lf.region, "region", "", "Region name within the city")
	f.StringSliceVar(&lf.amenities, "amenity", nil, "Amenity name; repeat or comma-separate for several")
	f.StringSliceVar(&lf.images, "image", nil, "Path of a photo to upload; repeatable")
	if update {
		f.IntSliceVar(&lf.removeImages, "remove-image", nil, "Id of an existing photo to remove; repeatable")
	}
}

// fill copies the flags that were set onto form.
func (lf *listingFlags) fill(cmd *cobra.Command, a *app, form *services.ListingForm, amenities []models.Amenity) error {
	fl := cmd.Flags()
	for name, pair := range map[string][2]*string{
		"title":       {&form.Title, &lf.title},
		"address":     {&form.Address, &lf.address},
		"description": {&form.Description, &lf.description},
		"rooms":       {&form.Rooms, &lf.rooms},
		"price":       {&form.Price, &lf.price},
	} {
		if fl.Changed(name) {
			*pair[0] = *pair[1]
		}
	}

	if fl.Changed("city") || fl.Changed("region") {
		if err := pickLocation(cmd.Context(), a, form.Selection, lf.city, lf.region); err != nil {
			return err
		}
	}

	if fl.Changed("amenity") {
		for _, am := range amenities {
			if form.AmenitySelected(am.ID) {
				form.ToggleAmenity(am.ID)
			}
		}
		for _, name := range lf.amenities {
			id := 0
			for _, am := range amenities {
				if services.Fold(am.Name) == services.Fold(name) {
					id = am.ID
					break
				}
			}
			if id == 0 {
				return api.Validation(map[string]string{"AmenityIds": fmt.Sprintf("unknown amenity %q", name)})
			}
			if !form.AmenitySelected(id) {
				form.ToggleAmenity(id)
			}
		}
	}

	for _, id := range lf.removeImages {
		if !form.RemoveImage(id) {
			return fmt.Errorf("listing has no photo %d", id)
		}
	}
	for _, path := range lf.images {
		if err := form.StageFile(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func submitForm(cmd *cobra.Command, a *app, form *services.ListingForm) error {
	payload, err := form.BeginSubmit()
	if err != nil {
		return userError(err)
	}
	err = a.listings.Submit(cmd.Context(), form.Mode(), payload)
	form.Complete(err)
	if err != nil {
		return userError(err)
	}
	return nil
}

func newPostCmd() *cobra.Command {
	var lf listingFlags
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish a new listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			if _, err := a.session.RequireToken(); err != nil {
				return userError(err)
			}

			cities, err := a.catalog.Cities(ctx)
			if err != nil {
				return userError(err)
			}
			amenities, err := a.catalog.Amenities(ctx)
			if err != nil {
				return userError(err)
			}

			form := services.NewCreateForm(cities)
			if err := lf.fill(cmd, a, form, amenities); err != nil {
				return userError(err)
			}
			if err := submitForm(cmd, a, form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Listing published.")
			return nil
		},
	}
	lf.register(cmd, false)
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("price")
	cmd.MarkFlagRequired("city")
	return cmd
}

func newEditCmd() *cobra.Command {
	var lf listingFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update one of your listings",
		Long:  "Update one of your listings. Only the flags given are changed;\n--amenity replaces the whole amenity set.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			id, err := listingID(args[0])
			if err != nil {
				return err
			}

			data, err := a.listings.LoadForEdit(ctx, id)
			if err != nil {
				return userError(err)
			}
			form := services.NewUpdateForm(data.Listing, data.Cities, data.Amenities)
			if req, ok := form.PresetLocation(data.Listing); ok {
				form.Selection.ApplyRegions(services.FetchRegions(ctx, a.catalog, req))
			}

			if err := lf.fill(cmd, a, form, data.Amenities); err != nil {
				return userError(err)
			}
			if err := submitForm(cmd, a, form); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listing #%d updated.\n", id)
			return nil
		},
	}
	lf.register(cmd, true)
	return cmd
}
