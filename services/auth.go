package services

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"unicode"

	"kiraye/api"
	"kiraye/session"
)

const minPasswordLen = 6

// Confirmations remembers realtor payment sessions already confirmed.
type Confirmations interface {
	Confirmation(sessionID string) (string, bool, error)
	SaveConfirmation(sessionID, message string) error
}

// Auth wraps the account endpoints with the client-side checks that must
// pass before anything is sent.
type Auth struct {
	api           AuthAPI
	session       *session.State
	confirmations Confirmations
	logger        *slog.Logger
}

func NewAuth(a AuthAPI, sess *session.State, confirmations Confirmations, logger *slog.Logger) *Auth {
	return &Auth{api: a, session: sess, confirmations: confirmations, logger: logger}
}

func (a *Auth) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "is required"
	}
	if password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		return api.Validation(fields)
	}

	resp, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	profile := session.Profile{UserName: resp.UserName, Email: resp.Email, Phone: resp.Phone}
	if profile.Email == "" {
		profile.Email = email
	}
	if !a.session.Login(resp.Token, profile) {
		return &api.Error{Kind: api.KindDecode, Message: "Login failed"}
	}
	return nil
}

func (a *Auth) Logout() {
	a.session.Logout()
}

type RegisterInput struct {
	Name            string
	Surname         string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
	Makler          bool
}

// Register creates an account. Realtor sign-ups get a checkout URL to pay
// at; the account is activated by ConfirmMakler afterwards.
func (a *Auth) Register(ctx context.Context, in RegisterInput) (api.RegisterResponse, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "is required"
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		fields["email"] = "is not a valid email address"
	}
	if n := countDigits(in.Phone); in.Phone != "" && (n < 10 || n > 13) {
		fields["phone"] = "must have 10 to 13 digits"
	}
	if msg := checkNewPassword(in.Password, in.ConfirmPassword); msg != "" {
		fields["password"] = msg
	}
	if len(fields) > 0 {
		return api.RegisterResponse{}, api.Validation(fields)
	}

	return a.api.Register(ctx, api.RegisterRequest{
		Name:            strings.TrimSpace(in.Name),
		Surname:         strings.TrimSpace(in.Surname),
		Email:           strings.TrimSpace(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
		IsMakler:        in.Makler,
	})
}

func (a *Auth) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", api.Validation(map[string]string{"email": "is required"})
	}
	return a.api.ForgotPassword(ctx, email)
}

func (a *Auth) ResetPassword(ctx context.Context, resetToken, password, repeat string) (string, error) {
	if password == "" || repeat == "" {
		return "", &api.Error{Kind: api.KindValidation, Message: "Please fill in both password fields."}
	}
	if msg := checkNewPassword(password, repeat); msg != "" {
		return "", &api.Error{Kind: api.KindValidation, Message: msg}
	}
	if strings.TrimSpace(resetToken) == "" {
		return "", &api.Error{Kind: api.KindValidation, Message: "The reset link is missing its token."}
	}
	return a.api.ResetPassword(ctx, resetToken, password)
}

func (a *Auth) ChangePassword(ctx context.Context, current, next, repeat string) (string, error) {
	token, err := a.session.RequireToken()
	if err != nil {
		return "", err
	}
	if current == "" {
		return "", api.Validation(map[string]string{"currentPassword": "is required"})
	}
	if msg := checkNewPassword(next, repeat); msg != "" {
		return "", &api.Error{Kind: api.KindValidation, Message: msg}
	}
	return a.api.ChangePassword(ctx, token, current, next)
}

// DeleteAccount removes the account and ends the session.
func (a *Auth) DeleteAccount(ctx context.Context) error {
	token, err := a.session.RequireToken()
	if err != nil {
		return err
	}
	if err := a.api.DeleteAccount(ctx, token); err != nil {
		return err
	}
	a.session.Logout()
	return nil
}

type ConfirmResult struct {
	Message string
	// Confirmed is false for informational outcomes such as a session that
	// was already used.
	Confirmed bool
}

// ConfirmMakler finishes a realtor registration. A session confirmed
// earlier is answered from local state without calling the server again.
func (a *Auth) ConfirmMakler(ctx context.Context, sessionID string) (ConfirmResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ConfirmResult{}, &api.Error{Kind: api.KindValidation, Message: "Session ID is missing in the URL."}
	}

	if a.confirmations != nil {
		msg, ok, err := a.confirmations.Confirmation(sessionID)
		if err != nil {
			a.logger.Warn("read confirmation", "error", err)
		}
		if ok {
			return ConfirmResult{Message: msg, Confirmed: true}, nil
		}
	}

	msg, err := a.api.ConfirmMakler(ctx, sessionID)
	if err != nil {
		if e, ok := api.As(err); ok && e.Kind != api.KindTransport && e.Kind != api.KindTimeout &&
			(strings.Contains(e.Message, "already taken") || strings.Contains(e.Message, "Registration data not found")) {
			return ConfirmResult{Message: e.Message}, nil
		}
		return ConfirmResult{}, err
	}

	if a.confirmations != nil {
		if err := a.confirmations.SaveConfirmation(sessionID, msg); err != nil {
			a.logger.Warn("save confirmation", "error", err)
		}
	}
	return ConfirmResult{Message: msg, Confirmed: true}, nil
}

// checkNewPassword returns the first problem with a new password pair.
func checkNewPassword(password, repeat string) string {
	if password != repeat {
		return "Passwords do not match."
	}
	if len([]rune(password)) < minPasswordLen {
		return "Password should be at least 6 characters."
	}
	return ""
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
