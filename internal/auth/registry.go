package auth

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/loykin/apismoke/internal/auth/jwt"
	"github.com/loykin/apismoke/internal/auth/oauth2"
	"github.com/loykin/apismoke/internal/auth/static"
)

// Method is the plugin interface for an authentication method.
// Acquire returns the raw bearer token; the session adds the "Bearer " scheme.
type Method interface {
	Acquire(ctx context.Context) (token string, err error)
}

// Factory builds a Method instance from a loosely-typed spec map.
// Decoding into a concrete config struct is the typical responsibility of a Factory.
type Factory func(spec map[string]interface{}) (Method, error)

var (
	mu        sync.RWMutex
	providers = map[string]Factory{}
)

// normalizeKey lower-cases and trims provider type keys.
func normalizeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register registers an auth provider factory under a type key (e.g., "oauth2", "static").
// Empty keys and nil factories are ignored.
func Register(typ string, f Factory) {
	key := normalizeKey(typ)
	if key == "" || f == nil {
		return
	}
	mu.Lock()
	providers[key] = f
	mu.Unlock()
}

// Types lists registered provider keys.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(providers))
	for k := range providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// AcquireFromMap builds a Method from the provider type and spec and acquires a token.
func AcquireFromMap(ctx context.Context, typ string, spec map[string]interface{}) (string, error) {
	mu.RLock()
	f, ok := providers[normalizeKey(typ)]
	mu.RUnlock()
	if !ok {
		return "", errors.New("auth: unsupported provider type: " + typ)
	}
	m, err := f(spec)
	if err != nil {
		return "", err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return m.Acquire(ctx)
}

// Built-in provider registrations
func init() {
	Register(static.Type, func(spec map[string]interface{}) (Method, error) {
		var c static.Config
		if err := mapstructure.Decode(spec, &c); err != nil {
			return nil, err
		}
		return static.Method{C: c}, nil
	})

	Register(oauth2.Type, func(spec map[string]interface{}) (Method, error) {
		var c oauth2.Config
		if err := mapstructure.Decode(spec, &c); err != nil {
			return nil, err
		}
		return c.GetGrantMethod()
	})

	Register(jwt.Type, func(spec map[string]interface{}) (Method, error) {
		var c jwt.Config
		if err := mapstructure.Decode(spec, &c); err != nil {
			return nil, err
		}
		return jwt.Method{C: c}, nil
	})
}
