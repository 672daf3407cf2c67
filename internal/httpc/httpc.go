package httpc

import (
	"crypto/tls"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// UserAgent is sent on every request so backend logs can tell smoke traffic apart.
const UserAgent = "apismoke/1.0"

// Options configures clients built by New.
type Options struct {
	BaseURL string
	// Timeout is the client-wide ceiling; individual calls narrow it with a context deadline.
	Timeout       time.Duration
	Insecure      bool
	MinTLSVersion string
	MaxTLSVersion string
}

// TLSConfig returns the TLS settings implied by the options, or nil when the
// defaults of net/http apply.
func (o Options) TLSConfig() *tls.Config {
	minV := ParseTLSVersion(o.MinTLSVersion)
	maxV := ParseTLSVersion(o.MaxTLSVersion)
	if !o.Insecure && minV == 0 && maxV == 0 {
		return nil
	}
	cfg := &tls.Config{MinVersion: minV, MaxVersion: maxV}
	if o.Insecure {
		// #nosec G402 -- opt-in for self-signed staging backends
		cfg.InsecureSkipVerify = true
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}
	return cfg
}

// keepRedirect stops at the first redirect and hands the 3xx response back
// to the caller instead of an error.
var keepRedirect = resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
})

// New returns a resty.Client configured from opts. Redirects are not followed
// so that a 302 to a login page shows up as a transport failure.
func New(opts Options) *resty.Client {
	c := resty.New().
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "application/json").
		SetRedirectPolicy(keepRedirect)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		c.SetBaseURL(base)
	}
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	if cfg := opts.TLSConfig(); cfg != nil {
		c.SetTLSClientConfig(cfg)
	}
	return c
}

// ParseTLSVersion converts a TLS version string to the corresponding crypto/tls constant.
// Supports various formats: "1.2", "12", "tls1.2", "tls12".
// Returns 0 if the version string is not recognized.
func ParseTLSVersion(version string) uint16 {
	switch strings.TrimSpace(strings.ToLower(version)) {
	case "1.0", "10", "tls1.0", "tls10":
		return tls.VersionTLS10
	case "1.1", "11", "tls1.1", "tls11":
		return tls.VersionTLS11
	case "1.2", "12", "tls1.2", "tls12":
		return tls.VersionTLS12
	case "1.3", "13", "tls1.3", "tls13":
		return tls.VersionTLS13
	default:
		return 0
	}
}
