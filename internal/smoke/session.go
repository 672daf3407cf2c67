package smoke

import "strings"

// Session holds the bearer token for one suite run. It is written once by the
// auth step and read by every authenticated call after it.
type Session struct {
	token string
}

func NewSession(token string) *Session {
	return &Session{token: strings.TrimSpace(token)}
}

func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

func (s *Session) Valid() bool { return s.Token() != "" }

// Authorization returns the header value for authenticated calls.
func (s *Session) Authorization() string {
	return "Bearer " + s.Token()
}
