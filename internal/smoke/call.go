package smoke

import "time"

// Call describes one HTTP request of a suite.
type Call struct {
	Name   string
	Method string
	// Path is joined to the client's base URL.
	Path  string
	Query map[string]string
	// Body is serialised as JSON; ignored when Upload is set.
	Body any
	// Upload sends a multipart form instead of a JSON body.
	Upload *Upload
	// Timeout bounds the whole call. Zero uses the client default.
	Timeout       time.Duration
	Authenticated bool
	// SuccessCode is the envelope code that means success for this call.
	SuccessCode int64
	// Schema names an embedded JSON schema the envelope must match. Empty skips validation.
	Schema string
}

// Upload is a single-file multipart form.
type Upload struct {
	Field    string
	FileName string
	Content  []byte
	Fields   map[string]string
}
