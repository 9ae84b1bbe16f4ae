package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

type LoginResponse struct {
	Token    string `json:"token"`
	UserName string `json:"userName"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phoneNumber"`
}

type RegisterRequest struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Email           string `json:"email"`
	Phone           string `json:"phoneNumber"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	IsMakler        bool   `json:"isMakler"`
}

// RegisterResponse carries the server message and, for realtor sign-ups,
// the payment page to finish registration on.
type RegisterResponse struct {
	Message     string `json:"message"`
	CheckoutURL string `json:"checkoutUrl"`
}

const (
	DefaultForgotMessage = "If this email is registered, a reset link has been sent to your email."
	defaultResetMessage  = "Password reset successfully."
	defaultChangeMessage = "Password changed successfully."
	defaultMaklerMessage = "Payment confirmed successfully."
)

func jsonBody(v any) (*bytes.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// Login exchanges credentials for a bearer token. Some deployments answer
// with the bare token as text, which is accepted too.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	body, err := jsonBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResponse{}, err
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/Auth/Login",
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return LoginResponse{}, err
	}

	res := Decode[LoginResponse](resp.body)
	if lr, ok := res.Value(); ok && lr.Token != "" {
		if lr.UserName == "" {
			lr.UserName = lr.Name
		}
		return lr, nil
	}
	if raw := strings.Trim(res.Raw(), `"`); strings.Count(raw, ".") == 2 {
		return LoginResponse{Token: raw}, nil
	}
	if tok, ok := Decode[string](resp.body).Value(); ok && tok != "" {
		return LoginResponse{Token: tok}, nil
	}
	return LoginResponse{}, &Error{Kind: KindDecode, Status: resp.status, Message: "Login failed", RequestID: resp.requestID}
}

func (c *Client) Register(ctx context.Context, r RegisterRequest) (RegisterResponse, error) {
	body, err := jsonBody(r)
	if err != nil {
		return RegisterResponse{}, err
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/Auth/Register",
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return RegisterResponse{}, err
	}

	res := Decode[RegisterResponse](resp.body)
	if rr, ok := res.Value(); ok {
		return rr, nil
	}
	return RegisterResponse{Message: plainText(resp.contentType, res.Raw())}, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	body, err := jsonBody(map[string]string{"email": email})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/Auth/ForgotPassword",
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return messageOf(resp, DefaultForgotMessage), nil
}

// ResetPassword sets a new password using the token from the reset email.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) (string, error) {
	body, err := jsonBody(map[string]string{"token": resetToken, "newPassword": newPassword})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/Auth/ResetPassword",
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return messageOf(resp, defaultResetMessage), nil
}

func (c *Client) ChangePassword(ctx context.Context, token, current, next string) (string, error) {
	body, err := jsonBody(map[string]string{"currentPassword": current, "newPassword": next})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/Auth/ChangePassword",
		body:        body,
		contentType: "application/json",
		token:       token,
		auth:        true,
	})
	if err != nil {
		return "", err
	}
	return messageOf(resp, defaultChangeMessage), nil
}

func (c *Client) DeleteAccount(ctx context.Context, token string) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/Auth/DeleteAccount",
		token:  token,
		auth:   true,
	})
	return err
}

// ConfirmMakler completes a realtor registration after payment.
func (c *Client) ConfirmMakler(ctx context.Context, sessionID string) (string, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/Auth/ConfirmMakler",
		query:  url.Values{"sessionId": {sessionID}},
	})
	if err != nil {
		return "", err
	}
	return messageOf(resp, defaultMaklerMessage), nil
}
