package api

import (
	"bytes"
	"encoding/json"
)

// Result is a decoded response body: either the typed value, or the raw
// text when the body was not the expected JSON.
type Result[T any] struct {
	value T
	raw   string
	ok    bool
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

func ParseError[T any](raw string) Result[T] {
	return Result[T]{raw: raw}
}

func (r Result[T]) Value() (T, bool) {
	return r.value, r.ok
}

func (r Result[T]) IsOk() bool {
	return r.ok
}

// Raw is the undecoded body text. Empty for Ok results.
func (r Result[T]) Raw() string {
	return r.raw
}

func Decode[T any](body []byte) Result[T] {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ParseError[T]("")
	}

	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return ParseError[T](string(trimmed))
	}
	return Ok(v)
}
