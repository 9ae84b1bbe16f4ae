package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"kiraye/services"
)

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			var err error
			if email == "" {
				if email, err = readLine(cmd, "Email: "); err != nil {
					return err
				}
			}
			if password, err = secretFlag(cmd, password, "Password: "); err != nil {
				return err
			}
			if err := a.auth.Login(cmd.Context(), email, password); err != nil {
				return userError(err)
			}
			id := a.session.Identity()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", firstNonEmpty(id.UserName, id.Email, id.UserID), id.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appFrom(cmd).auth.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := appFrom(cmd).session.Identity()
			out := cmd.OutOrStdout()
			if !id.LoggedIn() {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			fmt.Fprintf(out, "User:  %s\n", firstNonEmpty(id.UserName, "-"))
			fmt.Fprintf(out, "Email: %s\n", firstNonEmpty(id.Email, "-"))
			fmt.Fprintf(out, "Phone: %s\n", firstNonEmpty(id.Phone, "-"))
			fmt.Fprintf(out, "Role:  %s\n", id.Role)
			fmt.Fprintf(out, "ID:    %s\n", id.UserID)
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var in services.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long:  "Create an account. Realtor (--makler) sign-ups print a payment link;\nafter paying, run confirm-makler with the session id from the return URL.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			var err error
			if in.Password, err = secretFlag(cmd, in.Password, "Password: "); err != nil {
				return err
			}
			if in.ConfirmPassword == "" {
				if in.ConfirmPassword, err = secretFlag(cmd, "", "Repeat password: "); err != nil {
					return err
				}
			}

			resp, err := a.auth.Register(cmd.Context(), in)
			if err != nil {
				return userError(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, firstNonEmpty(resp.Message, "Registration successful."))
			if resp.CheckoutURL != "" {
				fmt.Fprintf(out, "Complete the payment at:\n  %s\n", resp.CheckoutURL)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "First name")
	f.StringVar(&in.Surname, "surname", "", "Last name")
	f.StringVar(&in.Email, "email", "", "Email")
	f.StringVar(&in.Phone, "phone", "", "Phone number")
	f.StringVar(&in.Password, "password", "", "Password (prompted when omitted)")
	f.StringVar(&in.ConfirmPassword, "confirm-password", "", "Password again (prompted when omitted)")
	f.BoolVar(&in.Makler, "makler", false, "Register as a realtor")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newForgotPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Send a password reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := appFrom(cmd).auth.ForgotPassword(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newResetPasswordCmd() *cobra.Command {
	var token, password, repeat string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password using the token from a reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if password, err = secretFlag(cmd, password, "New password: "); err != nil {
				return err
			}
			if repeat, err = secretFlag(cmd, repeat, "Repeat password: "); err != nil {
				return err
			}
			msg, err := appFrom(cmd).auth.ResetPassword(cmd.Context(), token, password, repeat)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Token from the reset link")
	cmd.Flags().StringVar(&password, "password", "", "New password (prompted when omitted)")
	cmd.Flags().StringVar(&repeat, "repeat", "", "New password again (prompted when omitted)")
	return cmd
}

func newChangePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "change-password",
		Short: "Change the password of the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if _, err := a.session.RequireToken(); err != nil {
				return userError(err)
			}
			current, err := secretFlag(cmd, "", "Current password: ")
			if err != nil {
				return err
			}
			next, err := secretFlag(cmd, "", "New password: ")
			if err != nil {
				return err
			}
			repeat, err := secretFlag(cmd, "", "Repeat new password: ")
			if err != nil {
				return err
			}
			msg, err := a.auth.ChangePassword(cmd.Context(), current, next, repeat)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newDeleteAccountCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if _, err := a.session.RequireToken(); err != nil {
				return userError(err)
			}
			if !confirm(cmd, yes, "Delete your account and all of its listings?") {
				return nil
			}
			if err := a.auth.DeleteAccount(cmd.Context()); err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newConfirmMaklerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm-makler <session-id>",
		Short: "Finish a realtor registration after payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := appFrom(cmd).auth.ConfirmMakler(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
