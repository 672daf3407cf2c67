package oauth2

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	acommon "github.com/loykin/apismoke/internal/auth/common"
	golangoauth2 "golang.org/x/oauth2"
)

const Type = "oauth2"

type Config struct {
	GrantType   string                 `mapstructure:"grant_type"`
	GrantConfig map[string]interface{} `mapstructure:"grant_config"`
}

// Method mirrors auth.Method so grant methods can be returned from the registry directly.
type Method interface {
	Acquire(ctx context.Context) (string, error)
}

// GetGrantMethod builds the grant-specific Method from GrantType and GrantConfig.
func (c Config) GetGrantMethod() (Method, error) {
	gt := strings.ToLower(strings.TrimSpace(c.GrantType))
	if gt == "" {
		return nil, errors.New("auth: oauth2 grant_type is required")
	}
	if c.GrantConfig == nil {
		return nil, errors.New("auth: oauth2 grant_config is required")
	}
	switch gt {
	case "password":
		var pc PasswordConfig
		if err := mapstructure.Decode(c.GrantConfig, &pc); err != nil {
			return nil, err
		}
		return passwordMethod{c: pc}, nil
	case "client_credentials", "client-credentials":
		var cc ClientCredentialsConfig
		if err := mapstructure.Decode(c.GrantConfig, &cc); err != nil {
			return nil, err
		}
		return clientCredentialsMethod{c: cc}, nil
	default:
		return nil, errors.New("auth: unsupported oauth2 grant_type: " + gt)
	}
}

// withTLSClient injects an HTTP client honoring the shared auth TLS settings.
func withTLSClient(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg := acommon.GetTLSConfig(); cfg != nil {
		hc := &http.Client{Transport: &http.Transport{TLSClientConfig: cfg}}
		ctx = context.WithValue(ctx, golangoauth2.HTTPClient, hc)
	}
	return ctx
}

func accessToken(tok *golangoauth2.Token) (string, error) {
	if tok == nil || !tok.Valid() || strings.TrimSpace(tok.AccessToken) == "" {
		return "", errors.New("oauth2: received invalid token")
	}
	return tok.AccessToken, nil
}
