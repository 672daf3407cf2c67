// Package envelope parses the {code, message, data} wrapper the backend puts
// around every JSON response.
package envelope

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/loykin/apismoke/internal/common"
	"github.com/loykin/apismoke/internal/util"
	"github.com/tidwall/gjson"
)

// ErrMalformed is returned when a body cannot be read as a JSON object.
var ErrMalformed = errors.New("malformed response")

// codeFields are tried in order; some controllers answer with "status" instead of "code".
var codeFields = []string{"code", "status"}

var messageFields = []string{"message", "msg"}

// Envelope is a parsed response. Field lookups use gjson paths relative to the body root.
type Envelope struct {
	StatusCode int
	Body       []byte
	root       gjson.Result
}

// Parse validates body as a JSON object and wraps it. It does not look at statusCode;
// a non-JSON body is malformed whatever the HTTP status says.
func Parse(statusCode int, body []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(trimmed)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object, got %s", ErrMalformed, root.Type)
	}
	return &Envelope{StatusCode: statusCode, Body: trimmed, root: root}, nil
}

// Code returns the business code and whether one was present.
func (e *Envelope) Code() (int64, bool) {
	for _, f := range codeFields {
		res := e.root.Get(f)
		switch res.Type {
		case gjson.Number:
			return res.Int(), true
		case gjson.String:
			if n, err := strconv.ParseInt(strings.TrimSpace(res.Str), 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// Message returns the human-readable message, or "" if absent.
func (e *Envelope) Message() string {
	for _, f := range messageFields {
		if res := e.root.Get(f); res.Exists() && res.Type != gjson.Null {
			return res.String()
		}
	}
	return ""
}

// CheckCode compares the business code against the success sentinel.
func (e *Envelope) CheckCode(want int64) error {
	got, ok := e.Code()
	if !ok {
		return &CodeError{Want: want, Missing: true, Message: e.Message()}
	}
	if got != want {
		return &CodeError{Want: want, Got: got, Message: e.Message()}
	}
	return nil
}

func (e *Envelope) Get(path string) gjson.Result {
	return e.root.Get(path)
}

func (e *Envelope) Data() gjson.Result {
	return e.root.Get("data")
}

// HasData reports whether data is present and not null.
func (e *Envelope) HasData() bool {
	return Present(e.Data())
}

// Require returns a *MissingFieldError for the first path that is absent or null.
func (e *Envelope) Require(paths ...string) error {
	for _, p := range paths {
		if !Present(e.root.Get(p)) {
			return &MissingFieldError{Path: p}
		}
	}
	return nil
}

// Preview returns the body masked and cut to at most n runes.
func (e *Envelope) Preview(n int) string {
	return PreviewBody(e.Body, n)
}

// PreviewBody masks credentials in body and truncates it. Used for bodies that failed to parse too.
func PreviewBody(body []byte, n int) string {
	return util.Truncate(common.MaskSensitiveData(string(bytes.TrimSpace(body))), n)
}

// Present reports whether res exists and is not JSON null.
func Present(res gjson.Result) bool {
	return res.Exists() && res.Type != gjson.Null
}

// NumberEquals compares res numerically with want, so 70.50 and "70.5" both match 70.5.
func NumberEquals(res gjson.Result, want float64) bool {
	switch res.Type {
	case gjson.Number:
		return res.Num == want
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(res.Str), 64)
		return err == nil && f == want
	default:
		return false
	}
}

// CodeError describes a business code that did not match the success sentinel.
type CodeError struct {
	Want    int64
	Got     int64
	Missing bool
	Message string
}

func (e *CodeError) Error() string {
	if e.Missing {
		return fmt.Sprintf("business code missing (want %d)", e.Want)
	}
	if e.Message != "" {
		return fmt.Sprintf("business code %d (want %d): %s", e.Got, e.Want, e.Message)
	}
	return fmt.Sprintf("business code %d (want %d)", e.Got, e.Want)
}

// MissingFieldError names a required field that was absent or null.
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Path)
}
