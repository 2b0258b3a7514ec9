// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-passkey/pkg/webauthn"
)

// mockRESTServer creates a test HTTP server that mimics the passkey server API
func mockRESTServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})

	// Version endpoint
	mux.HandleFunc("/api/v1/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":"1.0.0"}`))
	})

	// Status endpoint
	mux.HandleFunc("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","version":"1.0.0","uptime":"1h2m3s","relying_party_id":"localhost","origins":["https://localhost"]}`))
	})

	// Registration ceremony endpoints
	mux.HandleFunc("/api/v1/webauthn/registration/begin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"publicKey":{"challenge":"dGVzdC1jaGFsbGVuZ2U","rp":{"id":"localhost","name":"Test App"},"user":{"id":"dXNlci1pZA","name":"alice@example.com","displayName":"Alice"},"pubKeyCredParams":[{"type":"public-key","alg":-7}],"timeout":60000,"authenticatorSelection":{"userVerification":"preferred"},"attestation":"none"}}`))
	})

	mux.HandleFunc("/api/v1/webauthn/registration/finish", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"credentialId":"Y3JlZC1pZA","deviceName":"YubiKey 5C","trust":"basic"}`))
	})

	mux.HandleFunc("/api/v1/webauthn/registration/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"registered":true}`))
	})

	// Login ceremony endpoints
	mux.HandleFunc("/api/v1/webauthn/login/begin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"publicKey":{"challenge":"bG9naW4tY2hhbGxlbmdl","rpId":"localhost","timeout":60000,"allowCredentials":[{"type":"public-key","id":"Y3JlZC1pZA"}],"userVerification":"preferred"}}`))
	})

	mux.HandleFunc("/api/v1/webauthn/login/finish", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"credentialId":"Y3JlZC1pZA","userHandle":"dXNlci1pZA","counter":42,"userVerified":true,"token":"test-token"}`))
	})

	// Credential list endpoint (exact match, no trailing slash)
	mux.HandleFunc("/api/v1/webauthn/credentials", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"Y3JlZC1pZA","label":"YubiKey 5C","attachment":"cross-platform","trust":"basic","backed_up":false,"created_at":"2025-01-01T00:00:00Z","last_used_at":"2025-01-02T00:00:00Z"}]`))
	})

	// Rename and remove share the per-credential path
	mux.HandleFunc("/api/v1/webauthn/credentials/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return httptest.NewServer(mux)
}

func TestRESTClient_Connect(t *testing.T) {
	server := mockRESTServer(t)
	defer server.Close()

	client, err := New(&Config{
		Address: server.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)

	err = rc.Connect(context.Background())
	if err != nil {
		t.Errorf("Connect() error = %v", err)
	}

	if !rc.connected {
		t.Error("Expected connected = true")
	}
}

func TestRESTClient_Connect_Failed(t *testing.T) {
	server := mockRESTServer(t)
	addr := server.URL
	server.Close()

	client, err := New(&Config{
		Address: addr,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	err = rc.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect() should fail against a closed server")
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
	if rc.connected {
		t.Error("Expected connected = false after failed Connect")
	}
}

func TestRESTClient_Close(t *testing.T) {
	server := mockRESTServer(t)
	defer server.Close()

	client, err := New(&Config{
		Address: server.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	err = rc.Close()
	if err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if rc.connected {
		t.Error("Expected connected = false after Close")
	}
}

func TestRESTClient_Health(t *testing.T) {
	server := mockRESTServer(t)
	defer server.Close()

	client, err := New(&Config{
		Address: server.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	resp, err := rc.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Health() status = %v, want healthy", resp.Status)
	}
	if resp.Version != "1.0.0" {
		t.Errorf("Health() version = %v, want 1.0.0", resp.Version)
	}
}

func TestRESTClient_Version(t *testing.T) {
	server := mockRESTServer(t)
	defer server.Close()

	client, err := New(&Config{
		Address: server.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	resp, err := rc.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}

	if resp.Version != "1.0.0" {
		t.Errorf("Version() = %v, want 1.0.0", resp.Version)
	}
}

func TestRESTClient_Status(t *testing.T) {
	server := mockRESTServer(t)
	defer server.Close()

	client, err := New(&Config{
		Address: server.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	resp, err := rc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Status() status = %v, want healthy", resp.Status)
	}
	if resp.RelyingPartyID != "localhost" {
		t.Errorf("Status() relying party = %v, want localhost", resp.RelyingPartyID)
	}
	if len(resp.Origins) != 1 || resp.Origins[0] != "https://localhost" {
		t.Errorf("Status() origins = %v, want [https://localhost]", resp.Origins)
	}
	if resp.Uptime != "1h2m3s" {
		t.Errorf("Status() uptime = %v, want 1h2m3s", resp.Uptime)
	}
}

func TestRESTClient_BeginRegistration(t *testing.T) {
	server := mockRESTServer(t)
	defer server.Close()

	client, err := New(&Config{
		Address: server.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	resp, err := rc.BeginRegistration(context.Background(), "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("BeginRegistration() error = %v", err)
	}

	if string(resp.Response.Challenge) != "test-challenge" {
		t.Errorf("challenge = %q, want test-challenge", string(resp.Response.Challenge))
	}
	if resp.Response.RelyingParty.ID != "localhost" {
		t.Errorf("rp.id = %v, want localhost", resp.Response.RelyingParty.ID)
	}
	if resp.Response.User.Name != "alice@example.com" {
		t.Errorf("user.name = %v, want alice@example.com", resp.Response.User.Name)
	}
	if len(resp.Response.Parameters) != 1 || resp.Response.Parameters[0].Algorithm != webauthn.AlgES256 {
		t.Errorf("pubKeyCredParams = %v, want single ES256 entry", resp.Response.Parameters)
	}
}

func TestRESTClient_FinishRegistration(t *testing.T) {
	server := mockRESTServer(t)
	defer server.Close()

	client, err := New(&Config{
		Address: server.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	credential := &webauthn.CredentialCreationResponse{
		ID:   "Y3JlZC1pZA",
		Type: "public-key",
	}

	resp, err := rc.FinishRegistration(context.Background(), "YubiKey 5C", credential)
	if err != nil {
		t.Fatalf("FinishRegistration() error = %v", err)
	}

	if !resp.Success {
		t.Error("Expected success = true")
	}
	if resp.CredentialID != "Y3JlZC1pZA" {
		t.Errorf("credentialId = %v, want Y3JlZC1pZA", resp.CredentialID)
	}
	if resp.DeviceName != "YubiKey 5C" {
		t.Errorf("deviceName = %v, want YubiKey 5C", resp.DeviceName)
	}
	if resp.Trust != "basic" {
		t.Errorf("trust = %v, want basic", resp.Trust)
	}
}

func TestRESTClient_FinishRegistration_NilCredential(t *testing.T) {
	client, err := New(&Config{
		Address: "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	_, err = rc.FinishRegistration(context.Background(), "", nil)
	if err == nil {
		t.Error("FinishRegistration(nil) should return an error")
	}
}

func TestRESTClient_BeginLogin(t *testing.T) {
	server := mockRESTServer(t)
	defer server.Close()

	client, err := New(&Config{
		Address: server.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	resp, err := rc.BeginLogin(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("BeginLogin() error = %v", err)
	}

	if string(resp.Response.Challenge) != "login-challenge" {
		t.Errorf("challenge = %q, want login-challenge", string(resp.Response.Challenge))
	}
	if resp.Response.RelyingPartyID != "localhost" {
		t.Errorf("rpId = %v, want localhost", resp.Response.RelyingPartyID)
	}
	if len(resp.Response.AllowCredentials) != 1 {
		t.Errorf("allowCredentials count = %d, want 1", len(resp.Response.AllowCredentials))
	}
}

func TestRESTClient_FinishLogin(t *testing.T) {
	server := mockRESTServer(t)
	defer server.Close()

	client, err := New(&Config{
		Address: server.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	assertion := &webauthn.CredentialAssertionResponse{
		ID:   "Y3JlZC1pZA",
		Type: "public-key",
	}

	resp, err := rc.FinishLogin(context.Background(), assertion)
	if err != nil {
		t.Fatalf("FinishLogin() error = %v", err)
	}

	if !resp.Success {
		t.Error("Expected success = true")
	}
	if resp.Counter != 42 {
		t.Errorf("counter = %d, want 42", resp.Counter)
	}
	if !resp.UserVerified {
		t.Error("Expected userVerified = true")
	}
	if resp.UserHandle != "dXNlci1pZA" {
		t.Errorf("userHandle = %v, want dXNlci1pZA", resp.UserHandle)
	}
	if resp.Token != "test-token" {
		t.Errorf("token = %v, want test-token", resp.Token)
	}
}

func TestRESTClient_FinishLogin_NilAssertion(t *testing.T) {
	client, err := New(&Config{
		Address: "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	_, err = rc.FinishLogin(context.Background(), nil)
	if err == nil {
		t.Error("FinishLogin(nil) should return an error")
	}
}

func TestRESTClient_RegistrationStatus(t *testing.T) {
	server := mockRESTServer(t)
	defer server.Close()

	client, err := New(&Config{
		Address: server.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	resp, err := rc.RegistrationStatus(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("RegistrationStatus() error = %v", err)
	}

	if !resp.Registered {
		t.Error("Expected registered = true")
	}
}

func TestRESTClient_ListCredentials(t *testing.T) {
	server := mockRESTServer(t)
	defer server.Close()

	client, err := New(&Config{
		Address: server.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	creds, err := rc.ListCredentials(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("ListCredentials() error = %v", err)
	}

	if len(creds) != 1 {
		t.Fatalf("ListCredentials() count = %d, want 1", len(creds))
	}
	if creds[0].ID != "Y3JlZC1pZA" {
		t.Errorf("credential ID = %v, want Y3JlZC1pZA", creds[0].ID)
	}
	if creds[0].Label != "YubiKey 5C" {
		t.Errorf("label = %v, want YubiKey 5C", creds[0].Label)
	}
	if creds[0].Trust != "basic" {
		t.Errorf("trust = %v, want basic", creds[0].Trust)
	}
}

func TestRESTClient_RenameCredential(t *testing.T) {
	var gotMethod, gotPath, gotAccount string
	var gotBody []byte

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.HandleFunc("/api/v1/webauthn/credentials/", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAccount = r.URL.Query().Get("account")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := New(&Config{
		Address: server.URL,
	})

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	err := rc.RenameCredential(context.Background(), "alice@example.com", "Y3JlZC1pZA", "Work key")
	if err != nil {
		t.Fatalf("RenameCredential() error = %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("method = %v, want PATCH", gotMethod)
	}
	if gotPath != "/api/v1/webauthn/credentials/Y3JlZC1pZA" {
		t.Errorf("path = %v, want /api/v1/webauthn/credentials/Y3JlZC1pZA", gotPath)
	}
	if gotAccount != "alice@example.com" {
		t.Errorf("account = %v, want alice@example.com", gotAccount)
	}
	if !strings.Contains(string(gotBody), "Work key") {
		t.Errorf("body should contain new label, got: %s", string(gotBody))
	}
}

func TestRESTClient_RemoveCredential(t *testing.T) {
	var gotMethod, gotPath, gotAccount string

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.HandleFunc("/api/v1/webauthn/credentials/", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAccount = r.URL.Query().Get("account")
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := New(&Config{
		Address: server.URL,
	})

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	err := rc.RemoveCredential(context.Background(), "alice@example.com", "Y3JlZC1pZA")
	if err != nil {
		t.Fatalf("RemoveCredential() error = %v", err)
	}

	if gotMethod != http.MethodDelete {
		t.Errorf("method = %v, want DELETE", gotMethod)
	}
	if gotPath != "/api/v1/webauthn/credentials/Y3JlZC1pZA" {
		t.Errorf("path = %v, want /api/v1/webauthn/credentials/Y3JlZC1pZA", gotPath)
	}
	if gotAccount != "alice@example.com" {
		t.Errorf("account = %v, want alice@example.com", gotAccount)
	}
}

func TestRESTClient_NotConnected(t *testing.T) {
	client, err := New(&Config{
		Address: "http://localhost:9999",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	// Don't connect

	_, err = rc.Health(context.Background())
	if err != ErrNotConnected {
		t.Errorf("Health() error = %v, want ErrNotConnected", err)
	}

	_, err = rc.ListCredentials(context.Background(), "alice@example.com")
	if err != ErrNotConnected {
		t.Errorf("ListCredentials() error = %v, want ErrNotConnected", err)
	}

	err = rc.RemoveCredential(context.Background(), "alice@example.com", "Y3JlZC1pZA")
	if err != ErrNotConnected {
		t.Errorf("RemoveCredential() error = %v, want ErrNotConnected", err)
	}
}

func TestRESTClient_ErrorResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.HandleFunc("/api/v1/webauthn/credentials", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"account_not_found","message":"account not found"}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := New(&Config{
		Address: server.URL,
	})

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	_, err := rc.ListCredentials(context.Background(), "ghost@example.com")
	if err == nil {
		t.Error("Expected error for unknown account")
	}
	if !strings.Contains(err.Error(), "account not found") {
		t.Errorf("Error should contain 'account not found', got: %v", err)
	}
}

func TestRESTClient_ErrorResponseCodeOnly(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.HandleFunc("/api/v1/webauthn/registration/begin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := New(&Config{
		Address: server.URL,
	})

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	_, err := rc.BeginRegistration(context.Background(), "", "")
	if err == nil {
		t.Error("Expected error for bad request")
	}
	if !strings.Contains(err.Error(), "invalid_request") {
		t.Errorf("Error should contain 'invalid_request', got: %v", err)
	}
}

func TestRESTClient_ErrorResponseNoJSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.HandleFunc("/api/v1/webauthn/credentials", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`Internal Server Error`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := New(&Config{
		Address: server.URL,
	})

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	_, err := rc.ListCredentials(context.Background(), "alice@example.com")
	if err == nil {
		t.Error("Expected error for server error")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("Error should contain status code 500, got: %v", err)
	}
}

func TestRESTClient_JSONParseErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	// Everything else returns unparseable JSON with a 200 status
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{invalid json`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := New(&Config{
		Address: server.URL,
	})

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	ctx := context.Background()
	tests := []struct {
		name string
		call func() error
	}{
		{"Version", func() error { _, err := rc.Version(ctx); return err }},
		{"Status", func() error { _, err := rc.Status(ctx); return err }},
		{"BeginRegistration", func() error {
			_, err := rc.BeginRegistration(ctx, "alice@example.com", "")
			return err
		}},
		{"BeginLogin", func() error { _, err := rc.BeginLogin(ctx, ""); return err }},
		{"RegistrationStatus", func() error {
			_, err := rc.RegistrationStatus(ctx, "alice@example.com")
			return err
		}},
		{"ListCredentials", func() error {
			_, err := rc.ListCredentials(ctx, "alice@example.com")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if err == nil {
				t.Fatal("Expected parse error")
			}
			if !strings.Contains(err.Error(), "failed to parse response") {
				t.Errorf("Error = %v, want parse failure", err)
			}
		})
	}
}

func TestRESTClient_Headers(t *testing.T) {
	var receivedHeaders http.Header

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := New(&Config{
		Address: server.URL,
		Token:   "test-jwt-token",
		Headers: map[string]string{
			"X-Custom-Header": "custom-value",
		},
	})

	rc := client.(*restClient)
	_ = rc.Connect(context.Background())

	_, _ = rc.Health(context.Background())

	if receivedHeaders.Get("Authorization") != "Bearer test-jwt-token" {
		t.Errorf("Authorization = %v, want Bearer test-jwt-token", receivedHeaders.Get("Authorization"))
	}
	if receivedHeaders.Get("X-Custom-Header") != "custom-value" {
		t.Errorf("X-Custom-Header = %v, want custom-value", receivedHeaders.Get("X-Custom-Header"))
	}
}

func TestRESTClient_URLNormalization(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		wantBase string
	}{
		{"with trailing slash", "http://localhost:8080/", "http://localhost:8080"},
		{"without trailing slash", "http://localhost:8080", "http://localhost:8080"},
		{"with https", "https://localhost:8443", "https://localhost:8443"},
		{"without scheme tls enabled", "localhost:8443", "https://localhost:8443"},
		{"without scheme tls disabled", "localhost:8080", "http://localhost:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Address:    tt.address,
				TLSEnabled: strings.Contains(tt.name, "tls enabled"),
			}

			client, err := New(cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			rc := client.(*restClient)
			if rc.baseURL != tt.wantBase {
				t.Errorf("baseURL = %v, want %v", rc.baseURL, tt.wantBase)
			}
		})
	}
}

func TestRESTClient_Connect_TLS_CAFileError(t *testing.T) {
	cfg := &Config{
		Address:    "localhost:8443",
		TLSEnabled: true,
		TLSCAFile:  "/nonexistent/ca.pem",
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	err = rc.Connect(context.Background())
	if err == nil {
		t.Error("Connect() should error with nonexistent CA file")
	}
}

func TestRESTClient_Connect_TLS_InvalidCA(t *testing.T) {
	// Create a temp file with invalid CA content
	tmpDir, err := os.MkdirTemp("", "rest-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	caFile := filepath.Join(tmpDir, "invalid-ca.pem")
	if err := os.WriteFile(caFile, []byte("invalid certificate content"), 0600); err != nil {
		t.Fatalf("Failed to write CA file: %v", err)
	}

	cfg := &Config{
		Address:    "localhost:8443",
		TLSEnabled: true,
		TLSCAFile:  caFile,
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	err = rc.Connect(context.Background())
	if err == nil {
		t.Error("Connect() should error with invalid CA content")
	}
}

func TestRESTClient_Connect_TLS_CertError(t *testing.T) {
	cfg := &Config{
		Address:     "localhost:8443",
		TLSEnabled:  true,
		TLSCertFile: "/nonexistent/cert.pem",
		TLSKeyFile:  "/nonexistent/key.pem",
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rc := client.(*restClient)
	err = rc.Connect(context.Background())
	if err == nil {
		t.Error("Connect() should error with nonexistent cert/key files")
	}
}
