package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"kiraye/api"
	"kiraye/models"
	"kiraye/services"
)

type searchFlags struct {
	search, city, region string
	min, max, rooms      string
	sort                 string
	page                 int
}

func newSearchCmd() *cobra.Command {
	var (
		sf     searchFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search listings",
		Long: "Search listings. query is a shared query string such as\n" +
			"\"CityId=1&Rooms=2&page=2\"; flags override what it sets.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			base := models.FilterState{}
			if len(args) == 1 {
				base = services.FromQueryString(args[0])
			}
			filters, err := sf.apply(cmd, a, base)
			if err != nil {
				return userError(err)
			}

			list := a.browse.List
			a.browse.Apply(a.browse.Fetch(ctx, a.browse.Open(services.ToQueryString(filters))))
			if req, ok := list.Overflow(); ok {
				a.browse.Apply(a.browse.Fetch(ctx, req))
			}
			if err := list.Err(); err != nil {
				return userError(err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, models.PageResult{Items: list.Items(), TotalCount: list.TotalCount()})
			}
			printListings(out, list.Items())
			fmt.Fprintf(out, "Page %d/%d · %d listings", list.Page(), max(list.TotalPages(), 1), list.TotalCount())
			if q := a.browse.QueryString(); q != "" {
				fmt.Fprintf(out, " · ?%s", q)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&sf.search, "search", "s", "", "Text to look for in title or address")
	f.StringVar(&sf.city, "city", "", "City name, e.g. Baki")
	f.StringVar(&sf.region, "region", "", "Region name within --city")
	f.StringVar(&sf.min, "min", "", "Minimum price")
	f.StringVar(&sf.max, "max", "", "Maximum price")
	f.StringVar(&sf.rooms, "rooms", "", "Number of rooms")
	f.StringVar(&sf.sort, "sort", "", "Sort by price: asc or desc")
	f.IntVarP(&sf.page, "page", "p", 1, "Page number")
	f.BoolVar(&asJSON, "json", false, "Print the page as JSON")
	return cmd
}

// apply overlays the flags that were set on base.
func (sf *searchFlags) apply(cmd *cobra.Command, a *app, base models.FilterState) (models.FilterState, error) {
	fl := cmd.Flags()
	in := services.FilterInput{
		Search:   base.Search.Or(""),
		MinPrice: optText(base.MinPrice),
		MaxPrice: optText(base.MaxPrice),
		Rooms:    optText(base.Rooms),
		Sort:     base.SortByPrice.Or(""),
	}
	for name, dst := range map[string]*string{"search": &in.Search, "min": &in.MinPrice, "max": &in.MaxPrice, "rooms": &in.Rooms, "sort": &in.Sort} {
		if fl.Changed(name) {
			v, _ := fl.GetString(name)
			*dst = v
		}
	}

	f, err := services.ParseFilterInput(base, in)
	if err != nil {
		return f, err
	}

	if fl.Changed("city") || fl.Changed("region") {
		cities, err := a.catalog.Cities(cmd.Context())
		if err != nil {
			return f, err
		}
		sel := services.NewSelection(cities)
		if id, ok := f.CityID.Get(); ok {
			if req, ok := sel.Preset(id, f.RegionID.Or(0), ""); ok {
				sel.ApplyRegions(services.FetchRegions(cmd.Context(), a.catalog, req))
			}
		}
		if fl.Changed("city") && sf.city == "" {
			sel.SetCity(0)
		}
		if err := pickLocation(cmd.Context(), a, sel, sf.city, sf.region); err != nil {
			return f, err
		}
		f.CityID, f.RegionID = optID(sel.CityID()), optID(sel.RegionID())
	}

	if fl.Changed("page") {
		if sf.page < 1 {
			return f, api.Validation(map[string]string{"page": "must be 1 or more"})
		}
		f.Page = models.Some(sf.page)
	}
	return f, nil
}

// pickLocation resolves city and region names through the same dependent
// selection the post form uses. Empty names leave that level unchanged.
func pickLocation(ctx context.Context, a *app, sel *services.Selection, cityName, regionName string) error {
	if cityName != "" {
		id := 0
		for _, c := range sel.Cities() {
			if services.Fold(c.Name) == services.Fold(cityName) {
				id = c.ID
				break
			}
		}
		if id == 0 {
			return api.Validation(map[string]string{services.FieldCity: fmt.Sprintf("unknown city %q", cityName)})
		}
		if req, ok := sel.SetCity(id); ok {
			sel.ApplyRegions(services.FetchRegions(ctx, a.catalog, req))
		}
	}

	if regionName == "" {
		return nil
	}
	if sel.CityID() == 0 {
		return api.Validation(map[string]string{"RegionId": "pick a city first"})
	}
	if err := sel.Err(); err != nil {
		return err
	}
	for _, r := range sel.Regions() {
		if services.Fold(r.Name) == services.Fold(regionName) {
			sel.SetRegion(r.ID)
			return nil
		}
	}
	return api.Validation(map[string]string{"RegionId": fmt.Sprintf("unknown region %q", regionName)})
}

func newShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := listingID(args[0])
			if err != nil {
				return err
			}
			l, err := appFrom(cmd).listings.Get(cmd.Context(), id)
			if err != nil {
				return userError(err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), l)
			}
			printListing(cmd.OutOrStdout(), l)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the listing as JSON")
	return cmd
}

func newMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := loadProfile(cmd.Context(), a); err != nil {
				return userError(err)
			}
			items := a.profile.Items()
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "You have not posted any listings yet.")
				return nil
			}
			printListings(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func loadProfile(ctx context.Context, a *app) error {
	req, err := a.profile.Load()
	if err != nil {
		return err
	}
	a.profile.Apply(a.profile.Fetch(ctx, req))
	return a.profile.Err()
}

func newDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			id, err := listingID(args[0])
			if err != nil {
				return err
			}
			if err := loadProfile(cmd.Context(), a); err != nil {
				return userError(err)
			}

			req, err := a.profile.BeginDelete(id)
			if err != nil {
				return userError(err)
			}
			if !confirm(cmd, yes, fmt.Sprintf("Delete listing #%d?", id)) {
				a.profile.FinishDelete(req, context.Canceled)
				return nil
			}

			err = a.profile.SoftDelete(cmd.Context(), id)
			a.profile.FinishDelete(req, err)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.profile.Notice())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func listingID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid listing id %q", s)
	}
	return id, nil
}

func optID(id int) models.Opt[int] {
	if id == 0 {
		return models.None[int]()
	}
	return models.Some(id)
}

func optText[T any](o models.Opt[T]) string {
	if v, ok := o.Get(); ok {
		return fmt.Sprint(v)
	}
	return ""
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func printListings(w io.Writer, items []models.Listing) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No listings match these filters.")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Title", "City", "Region", "Rooms", "Price").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, l := range items {
		t.Row(strconv.Itoa(l.ID), l.Title, l.CityName, l.RegionName, strconv.Itoa(l.Rooms), l.Price.StringFixedBank(0)+" AZN")
	}
	fmt.Fprintln(w, t.Render())
}

func printListing(w io.Writer, l models.Listing) {
	fmt.Fprintf(w, "#%d %s\n", l.ID, l.Title)
	fmt.Fprintf(w, "  Price:     %s AZN\n", l.Price.String())
	fmt.Fprintf(w, "  Address:   %s\n", l.Address)
	fmt.Fprintf(w, "  Location:  %s\n", strings.Trim(l.CityName+", "+l.RegionName, ", "))
	fmt.Fprintf(w, "  Rooms:     %d\n", l.Rooms)
	if len(l.AmenityNames) > 0 {
		fmt.Fprintf(w, "  Amenities: %s\n", strings.Join(l.AmenityNames, ", "))
	}
	if owner := strings.TrimSpace(l.OwnerName + " " + l.OwnerSurname); owner != "" {
		fmt.Fprintf(w, "  Owner:     %s\n", owner)
	}
	if l.ContactPhone != "" {
		fmt.Fprintf(w, "  Phone:     %s\n", l.ContactPhone)
	}
	if l.Email != "" {
		fmt.Fprintf(w, "  Email:     %s\n", l.Email)
	}
	for _, img := range l.Images {
		fmt.Fprintf(w, "  Photo %-4d %s\n", img.ID, img.URL)
	}
	if l.Description != "" {
		fmt.Fprintf(w, "\n%s\n", l.Description)
	}
}
