package oauth2

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func tokenServer(t *testing.T, wantGrant, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if got := r.PostForm.Get("grant_type"); got != wantGrant {
			http.Error(w, "unexpected grant "+got, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResp{AccessToken: token, TokenType: "Bearer"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetGrantMethod_Password(t *testing.T) {
	srv := tokenServer(t, "password", "t-pass")

	c := Config{
		GrantType: "password",
		GrantConfig: map[string]interface{}{
			"client_id": "c",
			"username":  "testuser",
			"password":  "123456",
			"token_url": srv.URL + "/token",
		},
	}
	m, err := c.GetGrantMethod()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected acquire error: %v", err)
	}
	if v != "t-pass" {
		t.Fatalf("unexpected token: %q", v)
	}
}

func TestGetGrantMethod_ClientCredentials(t *testing.T) {
	srv := tokenServer(t, "client_credentials", "t-cc")

	c := Config{
		GrantType: "client-credentials",
		GrantConfig: map[string]interface{}{
			"client_id":     "c",
			"client_secret": "s",
			"token_url":     srv.URL + "/token",
		},
	}
	m, err := c.GetGrantMethod()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected acquire error: %v", err)
	}
	if v != "t-cc" {
		t.Fatalf("unexpected token: %q", v)
	}
}

func TestGetGrantMethod_Errors(t *testing.T) {
	if _, err := (Config{}).GetGrantMethod(); err == nil {
		t.Fatal("expected error for missing grant_type")
	}
	if _, err := (Config{GrantType: "password"}).GetGrantMethod(); err == nil {
		t.Fatal("expected error for missing grant_config")
	}
	if _, err := (Config{GrantType: "implicit", GrantConfig: map[string]interface{}{}}).GetGrantMethod(); err == nil {
		t.Fatal("expected error for unsupported grant")
	}
}

func TestAcquire_ValidationErrors(t *testing.T) {
	if _, err := (passwordMethod{}).Acquire(context.Background()); err == nil {
		t.Fatal("expected error for empty password config")
	}
	if _, err := (clientCredentialsMethod{c: ClientCredentialsConfig{TokenURL: "http://x"}}).Acquire(context.Background()); err == nil {
		t.Fatal("expected error for missing client credentials")
	}
}

func TestAcquire_TokenEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := clientCredentialsMethod{c: ClientCredentialsConfig{ClientID: "c", ClientSec: "bad", TokenURL: srv.URL}}
	if _, err := m.Acquire(context.Background()); err == nil {
		t.Fatal("expected error from token endpoint")
	}
}
