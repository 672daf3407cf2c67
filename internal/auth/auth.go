// Package auth acquires bearer tokens for suites that do not log in through
// the backend's own login endpoint.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/loykin/apismoke/internal/common"
	"github.com/loykin/apismoke/internal/util"
)

// TypeLogin selects the backend login endpoint. It is handled by the suites
// themselves so the login call is reported like every other step.
const TypeLogin = "login"

// Config selects a provider and carries its provider-specific settings.
type Config struct {
	Type string                 `mapstructure:"type" yaml:"type"`
	Spec map[string]interface{} `mapstructure:"config" yaml:"config"`
}

// UsesLogin reports whether the backend login endpoint should be used.
func (c *Config) UsesLogin() bool {
	if c == nil {
		return true
	}
	t := normalizeKey(c.Type)
	return t == "" || t == TypeLogin
}

// Acquire renders ${VAR} references in the provider config with lookup, then
// acquires a token from the registered provider. Expired JWTs are logged as a
// warning; the backend has the final say.
func (c *Config) Acquire(ctx context.Context, lookup util.LookupFunc) (string, error) {
	if c.UsesLogin() {
		return "", fmt.Errorf("auth: provider %q is handled by the suite", TypeLogin)
	}
	spec := c.Spec
	if spec == nil {
		spec = map[string]interface{}{}
	}
	if rendered, ok := util.ExpandAny(spec, lookup).(map[string]interface{}); ok {
		spec = rendered
	}

	tok, err := AcquireFromMap(ctx, c.Type, spec)
	if err != nil {
		return "", err
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", fmt.Errorf("auth: provider %q returned an empty token", c.Type)
	}

	logger := common.GetLogger().WithAuth(c.Type)
	if info, ok := Inspect(tok); ok {
		if info.Expired(time.Now()) {
			logger.Warn("acquired token is already expired", "expires_at", info.ExpiresAt, "subject", info.Subject)
		} else {
			logger.Debug("token acquired", "expires_at", info.ExpiresAt, "subject", info.Subject)
		}
	} else {
		logger.Debug("opaque token acquired")
	}
	return tok, nil
}
