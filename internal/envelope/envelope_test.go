package envelope

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_RejectsNonJSON(t *testing.T) {
	cases := map[string]string{
		"empty":  "",
		"html":   "<html>502 Bad Gateway</html>",
		"array":  `[1,2,3]`,
		"scalar": `"ok"`,
		"broken": `{"code":0`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(200, []byte(body)); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestParse_IgnoresHTTPStatus(t *testing.T) {
	env, err := Parse(500, []byte(`{"code":500,"message":"boom"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.StatusCode != 500 {
		t.Fatalf("status not kept: %d", env.StatusCode)
	}
	if env.Message() != "boom" {
		t.Fatalf("message = %q", env.Message())
	}
}

func TestEnvelope_Code(t *testing.T) {
	tests := []struct {
		body string
		want int64
		ok   bool
	}{
		{`{"code":0}`, 0, true},
		{`{"code":200,"data":null}`, 200, true},
		{`{"code":"200"}`, 200, true},
		{`{"status":200}`, 200, true},
		{`{"code":"abc"}`, 0, false},
		{`{"data":{}}`, 0, false},
	}
	for _, tt := range tests {
		env, err := Parse(200, []byte(tt.body))
		if err != nil {
			t.Fatalf("parse %s: %v", tt.body, err)
		}
		got, ok := env.Code()
		if got != tt.want || ok != tt.ok {
			t.Errorf("Code(%s) = %d,%v want %d,%v", tt.body, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEnvelope_CheckCode(t *testing.T) {
	env, _ := Parse(200, []byte(`{"code":500,"message":"report service down"}`))
	err := env.CheckCode(200)
	var ce *CodeError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CodeError, got %v", err)
	}
	if ce.Got != 500 || ce.Want != 200 || !strings.Contains(err.Error(), "report service down") {
		t.Fatalf("unexpected code error: %+v", ce)
	}

	env, _ = Parse(200, []byte(`{"message":"no code"}`))
	if err := env.CheckCode(0); !errors.As(err, &ce) || !ce.Missing {
		t.Fatalf("expected missing code error, got %v", err)
	}

	env, _ = Parse(200, []byte(`{"code":0,"data":{}}`))
	if err := env.CheckCode(0); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestEnvelope_RequireAndData(t *testing.T) {
	env, _ := Parse(200, []byte(`{"code":200,"data":{"token":"abc","user":null}}`))
	if !env.HasData() {
		t.Fatal("expected data")
	}
	if err := env.Require("data.token"); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	err := env.Require("data.token", "data.user")
	var mf *MissingFieldError
	if !errors.As(err, &mf) || mf.Path != "data.user" {
		t.Fatalf("expected missing data.user, got %v", err)
	}

	env, _ = Parse(200, []byte(`{"code":200,"data":null}`))
	if env.HasData() {
		t.Fatal("null data should not count as present")
	}
}

func TestNumberEquals(t *testing.T) {
	env, _ := Parse(200, []byte(`{"a":70.50,"b":"70.5","c":70.4,"d":null}`))
	if !NumberEquals(env.Get("a"), 70.5) {
		t.Error("70.50 should equal 70.5")
	}
	if !NumberEquals(env.Get("b"), 70.5) {
		t.Error(`"70.5" should equal 70.5`)
	}
	if NumberEquals(env.Get("c"), 70.5) {
		t.Error("70.4 should not equal 70.5")
	}
	if NumberEquals(env.Get("d"), 0) {
		t.Error("null is not a number")
	}
}

func TestPreview_MasksAndTruncates(t *testing.T) {
	env, _ := Parse(200, []byte(`{"code":200,"data":{"token":"eyJhbGciOiJIUzI1NiJ9.payload.sig"}}`))
	p := env.Preview(500)
	if strings.Contains(p, "eyJhbGci") {
		t.Fatalf("token leaked in preview: %s", p)
	}
	if got := PreviewBody([]byte(strings.Repeat("x", 50)), 10); got != strings.Repeat("x", 10)+"..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
