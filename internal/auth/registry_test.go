package auth

import (
	"context"
	"fmt"
	"testing"
)

type testMethod struct {
	value string
}

func (m testMethod) Acquire(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("nil context passed to Acquire")
	}
	return m.value, nil
}

func makeFactory(value string) Factory {
	return func(spec map[string]interface{}) (Method, error) {
		if v, ok := spec["value"].(string); ok && v != "" {
			value = v
		}
		return testMethod{value: value}, nil
	}
}

func TestRegistry_RegisterAndAcquire_CustomProvider(t *testing.T) {
	Register("UnitTestDemo", makeFactory("ok"))

	v, err := AcquireFromMap(nil, " unittestdemo ", map[string]interface{}{"value": "val"})
	if err != nil {
		t.Fatalf("AcquireFromMap err: %v", err)
	}
	if v != "val" {
		t.Fatalf("unexpected token %q", v)
	}
}

func TestRegistry_UnsupportedType_ReturnsError(t *testing.T) {
	if _, err := AcquireFromMap(context.Background(), "does-not-exist", nil); err == nil {
		t.Fatalf("expected error for unsupported provider, got nil")
	}
}

func TestRegistry_Register_IgnoresEmptyOrNil(t *testing.T) {
	before := len(Types())
	Register("", makeFactory("x"))
	Register("nil-factory", nil)
	if after := len(Types()); after != before {
		t.Fatalf("expected registry size %d, got %d", before, after)
	}
}

func TestRegistry_BuiltIns(t *testing.T) {
	have := map[string]bool{}
	for _, typ := range Types() {
		have[typ] = true
	}
	for _, want := range []string{"static", "oauth2", "jwt"} {
		if !have[want] {
			t.Errorf("built-in provider %q not registered", want)
		}
	}
}
