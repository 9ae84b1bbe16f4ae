package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"kiraye/tui"
	"kiraye/tui/views"
)

type ctxKey struct{}

// opened tracks the app built for the running command so it can be closed
// even when the command fails.
type opened struct {
	app *app
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	var o opened
	err := newRootCmd(&o).ExecuteContext(ctx)
	if o.app != nil {
		o.app.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func newRootCmd(o *opened) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "kiraye [query]",
		Short:         "Browse and post rental listings",
		Long:          "kiraye is a terminal client for the rental listings API.\nWith no subcommand it opens the interactive browser, optionally at a\nshared query such as \"CityId=1&page=2\".",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The TUI owns the terminal, so only subcommands log to stderr.
			var console io.Writer
			if cmd != cmd.Root() && (verbose || cmd.Name() == "watch") {
				console = cmd.ErrOrStderr()
			}
			a, err := newApp(console)
			if err != nil {
				return err
			}
			o.app = a
			cmd.SetContext(context.WithValue(cmd.Context(), ctxKey{}, a))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return tui.Run(views.Deps{
				Ctx:      cmd.Context(),
				Browse:   a.browse,
				Catalog:  a.catalog,
				Listings: a.listings,
				Profile:  a.profile,
				Auth:     a.auth,
				Session:  a.session,
				Logger:   a.logger,
				Query:    query,
			})
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Also write log lines to stderr")

	root.AddCommand(
		newSearchCmd(),
		newShowCmd(),
		newMineCmd(),
		newPostCmd(),
		newEditCmd(),
		newDeleteCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newRegisterCmd(),
		newForgotPasswordCmd(),
		newResetPasswordCmd(),
		newChangePasswordCmd(),
		newDeleteAccountCmd(),
		newConfirmMaklerCmd(),
		newWatchCmd(),
		newRunsCmd(),
	)
	return root
}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(ctxKey{}).(*app)
}
