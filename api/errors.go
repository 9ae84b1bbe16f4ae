package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
)

type Kind string

const (
	KindTransport       Kind = "transport"
	KindTimeout         Kind = "timeout"
	KindHTTP            Kind = "http"
	KindDecode          Kind = "decode"
	KindUnauthenticated Kind = "unauthenticated"
	KindNoAccess        Kind = "no_access"
	KindValidation      Kind = "validation"
)

// Error is the single error shape surfaced to views. Fields holds per-field
// messages from either server-side model validation or client-side checks.
type Error struct {
	Kind      Kind
	Status    int
	Message   string
	Fields    map[string][]string
	RequestID string
}

var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Status: http.StatusUnauthorized, Message: "You must be logged in."}
	ErrNoAccess        = &Error{Kind: KindNoAccess, Status: http.StatusForbidden, Message: "You do not have access to this listing."}
	ErrTransport       = &Error{Kind: KindTransport, Message: "Something went wrong. Please try again."}
	ErrTimeout         = &Error{Kind: KindTimeout, Message: "The request timed out."}
)

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		return strings.Join(e.Lines(), "; ")
	}
	if e.Status != 0 {
		return http.StatusText(e.Status)
	}
	return string(e.Kind)
}

// Is matches on Kind so callers can test errors.Is(err, api.ErrUnauthenticated).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Lines renders field errors as "field: msg1, msg2", sorted by field.
func (e *Error) Lines() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return lines
}

// FieldError returns the first message recorded for field.
func (e *Error) FieldError(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Validation builds a client-side validation error from field messages.
func Validation(fields map[string]string) *Error {
	e := &Error{Kind: KindValidation, Fields: make(map[string][]string, len(fields))}
	for k, v := range fields {
		e.Fields[k] = []string{v}
	}
	return e
}

// Message returns the text a view should show for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Message == "" && len(apiErr.Fields) > 0 {
			return strings.Join(apiErr.Lines(), "\n")
		}
		return apiErr.Error()
	}
	return ErrTransport.Message
}

func As(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

type errorBody struct {
	Message string          `json:"message"`
	Title   string          `json:"title"`
	Detail  string          `json:"detail"`
	Errors  json.RawMessage `json:"errors"`
}

// fromResponse normalises a non-2xx response. JSON bodies are read for
// message/title/errors; anything else is used as plain text.
func fromResponse(status int, contentType string, body []byte, requestID string) *Error {
	e := &Error{Kind: KindHTTP, Status: status, RequestID: requestID}
	if status == http.StatusUnauthorized {
		e.Kind = KindUnauthenticated
	}

	res := Decode[errorBody](body)
	if eb, ok := res.Value(); ok {
		e.Message = firstNonEmpty(eb.Message, eb.Detail)
		e.Fields = parseFieldErrors(eb.Errors)
		if e.Message == "" && len(e.Fields) == 0 {
			e.Message = eb.Title
		}
	} else {
		e.Message = plainText(contentType, res.Raw())
	}

	if e.Message == "" && len(e.Fields) == 0 {
		switch e.Kind {
		case KindUnauthenticated:
			e.Message = ErrUnauthenticated.Message
		default:
			e.Message = http.StatusText(status)
		}
	}
	return e
}

func parseFieldErrors(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var byField map[string][]string
	if err := json.Unmarshal(raw, &byField); err == nil && len(byField) > 0 {
		return byField
	}

	var single map[string]string
	if err := json.Unmarshal(raw, &single); err == nil && len(single) > 0 {
		out := make(map[string][]string, len(single))
		for k, v := range single {
			out[k] = []string{v}
		}
		return out
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return map[string][]string{"general": list}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
