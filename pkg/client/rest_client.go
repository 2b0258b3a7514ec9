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
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/jeremyhahn/go-passkey/pkg/webauthn"
	webauthnhttp "github.com/jeremyhahn/go-passkey/pkg/webauthn/http"
)

// webauthnBasePath is where the server mounts the WebAuthn API.
const webauthnBasePath = "/api/v1/webauthn"

// restClient implements the Client interface using HTTP/REST.
type restClient struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
	connected  bool
}

// newRESTClient creates a new REST client.
func newRESTClient(cfg *Config) (*restClient, error) {
	// Parse and normalize the base URL
	baseURL := cfg.Address
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		if cfg.TLSEnabled {
			baseURL = "https://" + baseURL
		} else {
			baseURL = "http://" + baseURL
		}
	}

	// Remove trailing slash
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &restClient{
		config:  cfg,
		baseURL: baseURL,
	}, nil
}

// Connect establishes a connection to the passkey server.
func (c *restClient) Connect(ctx context.Context) error {
	// Create TLS config if needed
	var tlsConfig *tls.Config
	if c.config.TLSEnabled {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: c.config.TLSInsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		}

		// Load CA certificate if specified
		if c.config.TLSCAFile != "" {
			caCert, err := os.ReadFile(c.config.TLSCAFile)
			if err != nil {
				return fmt.Errorf("failed to read CA certificate: %w", err)
			}
			caCertPool := x509.NewCertPool()
			if !caCertPool.AppendCertsFromPEM(caCert) {
				return fmt.Errorf("failed to parse CA certificate")
			}
			tlsConfig.RootCAs = caCertPool
		}

		// Load client certificate if specified (mTLS)
		if c.config.TLSCertFile != "" && c.config.TLSKeyFile != "" {
			cert, err := tls.LoadX509KeyPair(c.config.TLSCertFile, c.config.TLSKeyFile)
			if err != nil {
				return fmt.Errorf("failed to load client certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
	}

	// Create HTTP client
	transport := &http.Transport{
		TLSClientConfig: tlsConfig,
	}

	c.httpClient = &http.Client{
		Transport: transport,
	}

	// Test connection with health check
	_, err := c.Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	c.connected = true
	return nil
}

// Close closes the REST client.
func (c *restClient) Close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	c.connected = false
	return nil
}

// doRequest performs an HTTP request to the passkey server.
func (c *restClient) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if c.httpClient == nil {
		return nil, ErrNotConnected
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	reqURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Add JWT token if configured
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	// Add custom headers
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("failed to close response body: %v", closeErr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			return nil, fmt.Errorf("server error: %s", errResp.Message)
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("server error: %s", errResp.Error)
		}
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Health checks the health of the server.
func (c *restClient) Health(ctx context.Context) (*HealthResponse, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &resp, nil
}

// Version returns the server version.
func (c *restClient) Version(ctx context.Context) (*VersionResponse, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/api/v1/version", nil)
	if err != nil {
		return nil, err
	}

	var resp VersionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &resp, nil
}

// Status returns the server status and relying party configuration.
func (c *restClient) Status(ctx context.Context) (*ServerStatusResponse, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/api/v1/status", nil)
	if err != nil {
		return nil, err
	}

	var resp ServerStatusResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &resp, nil
}

// BeginRegistration starts a registration ceremony for an account.
func (c *restClient) BeginRegistration(ctx context.Context, account, displayName string) (*webauthn.CredentialCreation, error) {
	body := &webauthnhttp.BeginRegistrationRequest{
		Account:     account,
		DisplayName: displayName,
	}

	data, err := c.doRequest(ctx, http.MethodPost, webauthnBasePath+"/registration/begin", body)
	if err != nil {
		return nil, err
	}

	var resp webauthn.CredentialCreation
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &resp, nil
}

// FinishRegistration completes a registration ceremony.
func (c *restClient) FinishRegistration(ctx context.Context, label string, credential *webauthn.CredentialCreationResponse) (*webauthnhttp.RegistrationResponse, error) {
	if credential == nil {
		return nil, fmt.Errorf("credential is required")
	}

	body := &webauthnhttp.FinishRegistrationRequest{
		Label:      label,
		Credential: *credential,
	}

	data, err := c.doRequest(ctx, http.MethodPost, webauthnBasePath+"/registration/finish", body)
	if err != nil {
		return nil, err
	}

	var resp webauthnhttp.RegistrationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &resp, nil
}

// BeginLogin starts an authentication ceremony.
func (c *restClient) BeginLogin(ctx context.Context, account string) (*webauthn.CredentialAssertion, error) {
	body := &webauthnhttp.BeginLoginRequest{
		Account: account,
	}

	data, err := c.doRequest(ctx, http.MethodPost, webauthnBasePath+"/login/begin", body)
	if err != nil {
		return nil, err
	}

	var resp webauthn.CredentialAssertion
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &resp, nil
}

// FinishLogin completes an authentication ceremony.
func (c *restClient) FinishLogin(ctx context.Context, assertion *webauthn.CredentialAssertionResponse) (*webauthnhttp.LoginResponse, error) {
	if assertion == nil {
		return nil, fmt.Errorf("assertion is required")
	}

	data, err := c.doRequest(ctx, http.MethodPost, webauthnBasePath+"/login/finish", assertion)
	if err != nil {
		return nil, err
	}

	var resp webauthnhttp.LoginResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &resp, nil
}

// RegistrationStatus reports whether the account has active credentials.
func (c *restClient) RegistrationStatus(ctx context.Context, account string) (*webauthnhttp.RegistrationStatusResponse, error) {
	path := fmt.Sprintf("%s/registration/status?account=%s", webauthnBasePath, url.QueryEscape(account))
	data, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp webauthnhttp.RegistrationStatusResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &resp, nil
}

// ListCredentials returns the active credentials registered to an account.
func (c *restClient) ListCredentials(ctx context.Context, account string) ([]webauthnhttp.CredentialSummary, error) {
	path := fmt.Sprintf("%s/credentials?account=%s", webauthnBasePath, url.QueryEscape(account))
	data, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp []webauthnhttp.CredentialSummary
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return resp, nil
}

// RenameCredential changes the label of a credential owned by the account.
func (c *restClient) RenameCredential(ctx context.Context, account, credentialID, label string) error {
	path := fmt.Sprintf("%s/credentials/%s?account=%s",
		webauthnBasePath, url.PathEscape(credentialID), url.QueryEscape(account))
	body := &webauthnhttp.RenameCredentialRequest{
		Label: label,
	}

	_, err := c.doRequest(ctx, http.MethodPatch, path, body)
	return err
}

// RemoveCredential deactivates a credential owned by the account.
func (c *restClient) RemoveCredential(ctx context.Context, account, credentialID string) error {
	path := fmt.Sprintf("%s/credentials/%s?account=%s",
		webauthnBasePath, url.PathEscape(credentialID), url.QueryEscape(account))

	_, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	return err
}
