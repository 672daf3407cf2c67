package static

import (
	"context"
	"errors"
	"strings"
)

const Type = "static"

// Config carries a pre-issued token, usually injected as ${APISMOKE_TOKEN}.
type Config struct {
	Token string `mapstructure:"token"`
}

type Method struct {
	C Config
}

func (m Method) Acquire(_ context.Context) (string, error) {
	tok := strings.TrimSpace(m.C.Token)
	tok = strings.TrimSpace(strings.TrimPrefix(tok, "Bearer "))
	if tok == "" {
		return "", errors.New("static: token is required")
	}
	return tok, nil
}
