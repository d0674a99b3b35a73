// Package e2e drives a running arrears server through its HTTP API.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestContext holds per-scenario HTTP state.
type TestContext struct {
	BaseURL    string
	AdminToken string
	client     *http.Client
	token      string

	lastStatus int
	lastBody   []byte
	aliases    map[string]string
}

// NewTestContext reads E2E_* variables. Defaults match a development server.
func NewTestContext() (*TestContext, error) {
	token, err := signToken(
		getEnv("E2E_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		getEnv("E2E_JWT_ISSUER", "arrears"),
		getEnv("E2E_JWT_AUDIENCE", "arrears-api"),
	)
	if err != nil {
		return nil, err
	}
	return &TestContext{
		BaseURL:    getEnv("E2E_BASE_URL", "http://localhost:8080"),
		AdminToken: os.Getenv("E2E_ADMIN_TOKEN"),
		client:     &http.Client{Timeout: 10 * time.Second},
		token:      token,
		aliases:    make(map[string]string),
	}, nil
}

// Reset clears state between scenarios.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.aliases = make(map[string]string)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, tc.bearer())
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil, tc.bearer())
}

func (tc *TestContext) AdminPOST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, tc.admin())
}

func (tc *TestContext) AdminPUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body, tc.admin())
}

func (tc *TestContext) StatusCode() int {
	return tc.lastStatus
}

func (tc *TestContext) Body() []byte {
	return tc.lastBody
}

// DecodeBody unmarshals the last response into v.
func (tc *TestContext) DecodeBody(v any) error {
	if err := json.Unmarshal(tc.lastBody, v); err != nil {
		return fmt.Errorf("decode response %q: %w", tc.lastBody, err)
	}
	return nil
}

// SetAlias maps a scenario name such as "LN-1" to a server generated id.
func (tc *TestContext) SetAlias(name, value string) {
	tc.aliases[name] = value
}

func (tc *TestContext) Alias(name string) (string, error) {
	v, ok := tc.aliases[name]
	if !ok {
		return "", fmt.Errorf("unknown alias %q", name)
	}
	return v, nil
}

func (tc *TestContext) bearer() map[string]string {
	return map[string]string{"Authorization": "Bearer " + tc.token}
}

func (tc *TestContext) admin() map[string]string {
	return map[string]string{"X-Admin-Token": tc.AdminToken}
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func signToken(key, issuer, audience string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "e2e-suite",
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
