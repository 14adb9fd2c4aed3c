package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/irsalhamdi/e-commerce-store/api"
	"github.com/irsalhamdi/e-commerce-store/api/weberr"
	"github.com/irsalhamdi/e-commerce-store/core/claims"
	"github.com/irsalhamdi/e-commerce-store/database/dbtest"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

type TestEnv struct {
	*httptest.Server
	DB *sqlx.DB
}

func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	db := dbtest.NewUnit(t, name)

	srv := httptest.NewServer(api.APIMux(api.APIConfig{
		Log:      dbtest.Logger(t),
		DB:       db,
		Registry: prometheus.NewRegistry(),
	}))
	t.Cleanup(srv.Close)

	return &TestEnv{Server: srv, DB: db}, nil
}

// Do sends body as JSON on behalf of user, who stays anonymous when empty,
// and decodes the response into out unless out is nil.
func (env *TestEnv) Do(method, path, user string, body any, out any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}

	r, err := http.NewRequest(method, env.URL+path, &buf)
	if err != nil {
		return 0, err
	}
	if user != "" {
		r.Header.Set(claims.UserIDHeader, user)
	}

	w, err := env.Client().Do(r)
	if err != nil {
		return 0, err
	}
	defer w.Body.Close()

	b, err := io.ReadAll(w.Body)
	if err != nil {
		return w.StatusCode, err
	}

	if out != nil && len(b) > 0 {
		if err := json.Unmarshal(b, out); err != nil {
			return w.StatusCode, fmt.Errorf("decoding %s: %w", b, err)
		}
	}

	return w.StatusCode, nil
}

// Expect sends the request and fails the test unless the response has the
// wanted status.
func (env *TestEnv) Expect(t *testing.T, status int, method, path, user string, body any, out any) {
	t.Helper()

	code, err := env.Do(method, path, user, body, out)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	if code != status {
		t.Fatalf("%s %s: expected status %d, got %d", method, path, status, code)
	}
}

// ExpectError is Expect for failing requests; it returns the decoded error.
func (env *TestEnv) ExpectError(t *testing.T, status int, method, path, user string, body any) weberr.ErrorResponse {
	t.Helper()

	var er weberr.ErrorResponse
	env.Expect(t, status, method, path, user, body, &er)
	return er
}
