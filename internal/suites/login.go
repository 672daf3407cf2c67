package suites

import (
	"context"
	"net/http"
	"strings"

	"github.com/loykin/apismoke/internal/auth"
	"github.com/loykin/apismoke/internal/constants"
	"github.com/loykin/apismoke/internal/envelope"
	"github.com/loykin/apismoke/internal/smoke"
)

const stepLogin = "Login"

// loginStep acquires the session token, either from the backend login
// endpoint or from the configured auth provider.
func loginStep(c *smoke.Client, opts Options, deps Deps) smoke.StepFunc {
	rep := deps.Reporter
	return func(ctx context.Context) error {
		if !opts.Auth.UsesLogin() {
			tok, err := opts.Auth.Acquire(ctx, deps.Lookup)
			if err != nil {
				return smoke.NewStepError(smoke.KindAuth, stepLogin, err)
			}
			c.SetSession(smoke.NewSession(tok))
			rep.OK("token acquired via %s provider", opts.Auth.Type)
			return nil
		}

		env, err := c.Do(ctx, smoke.Call{
			Name:        stepLogin,
			Method:      http.MethodPost,
			Path:        constants.PathLogin,
			Body:        map[string]any{"username": opts.Username, "password": opts.Password},
			Timeout:     opts.Timeouts.Login,
			SuccessCode: opts.SuccessCode,
		})
		if err != nil {
			return err
		}
		tok := strings.TrimSpace(env.Get("data.token").String())
		if tok == "" {
			return smoke.NewStepError(smoke.KindAuth, stepLogin, &envelope.MissingFieldError{Path: "data.token"})
		}
		if info, ok := auth.Inspect(tok); ok && info.Expired(opts.Now()) {
			rep.Warn("login returned an expired token (exp %s)", info.ExpiresAt.Format("2006-01-02 15:04:05"))
		}
		c.SetSession(smoke.NewSession(tok))
		rep.OK("logged in as %s", opts.Username)
		return nil
	}
}
