package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/UserUpload/internal/config"
	"github.com/JonMunkholm/UserUpload/internal/core"
	"github.com/JonMunkholm/UserUpload/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeIngester struct {
	result core.IngestResult

	gotPath     string
	gotName     string
	gotContent  string
	gotOrigin   core.Origin
	gotDeadline time.Time
}

func (f *fakeIngester) Ingest(ctx context.Context, sourcePath string) core.IngestResult {
	f.gotPath = sourcePath
	f.gotDeadline, _ = ctx.Deadline()
	f.gotOrigin, _ = core.OriginFromContext(ctx)
	f.gotName = filepath.Base(sourcePath)
	data, _ := os.ReadFile(sourcePath)
	f.gotContent = string(data)

	res := f.result
	res.SourcePath = sourcePath
	return res
}

type fakeUsers struct {
	users []database.User
	err   error

	gotDeadline time.Time
}

func (f *fakeUsers) List(ctx context.Context, limit int) ([]database.User, error) {
	f.gotDeadline, _ = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.users) {
		return f.users[:limit], nil
	}
	return f.users, nil
}

func (f *fakeUsers) Count(ctx context.Context) (int64, error) {
	return int64(len(f.users)), f.err
}

type fakePool struct{ status database.PoolStatus }

func (f fakePool) Status() database.PoolStatus { return f.status }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second, RateLimit: 100},
		Upload: config.UploadConfig{MaxFileSize: 1 << 20, Timeout: 5 * time.Second},
	}
}

func age(n int32) *int32 { return &n }

func newTestServer(t *testing.T, ing *fakeIngester, users *fakeUsers) *Server {
	t.Helper()
	if ing == nil {
		ing = &fakeIngester{}
	}
	if users == nil {
		users = &fakeUsers{}
	}
	s := NewServer(testConfig(), ing, users, fakePool{database.PoolStatus{Name: "web", MaxSize: 5, Active: 1}})
	t.Cleanup(func() { s.Shutdown(context.Background()) }) //nolint:errcheck
	return s
}

func multipartRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Pages and read APIs
// =============================================================================

func TestIndex_RendersEscapedUsers(t *testing.T) {
	users := &fakeUsers{users: []database.User{
		{ID: 1, Name: "Alice Smith", Email: "alice@example.com", Age: age(34)},
		{ID: 2, Name: "<b>Mallory</b>", Email: "m@test.com"},
	}}
	s := newTestServer(t, nil, users)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Alice Smith")
	assert.Contains(t, body, "<td>34</td>")
	assert.Contains(t, body, "&lt;b&gt;Mallory&lt;/b&gt;")
	assert.NotContains(t, body, "<b>Mallory</b>")
	assert.Contains(t, body, "2 stored")
}

func TestIndex_Empty(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No users uploaded yet")
}

func TestListUsers_JSON(t *testing.T) {
	users := &fakeUsers{users: []database.User{
		{ID: 1, Name: "Alice Smith", Email: "alice@example.com", Age: age(34)},
		{ID: 2, Name: "Bob", Email: "bob@test.com", Age: age(29)},
	}}
	s := newTestServer(t, nil, users)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/users?limit=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp UsersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "Alice Smith", resp.Users[0].Name)
}

func TestListUsers_StoreError(t *testing.T) {
	s := newTestServer(t, nil, &fakeUsers{err: &core.Error{Kind: core.KindStore, Category: "connection", Message: "refused"}})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "DB004", resp.Code)
	assert.Equal(t, "StoreError", resp.Kind)
}

func TestPoolStatus(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/pool", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status database.PoolStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "web", status.Name)
	assert.Equal(t, 5, status.MaxSize)
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

// =============================================================================
// Ingest
// =============================================================================

func TestIngest_Success(t *testing.T) {
	ing := &fakeIngester{result: core.IngestResult{
		ID:           "abc",
		Outcome:      core.OutcomeSuccess,
		State:        core.StateReported,
		ArchivedPath: "/srv/archive/20240101_120000_people.csv",
		RowCount:     2,
	}}
	s := newTestServer(t, ing, nil)
	content := "name,email,age\nAlice Smith,alice@example.com,34\nBob,bob@test.com,29\n"

	rec := serve(s, multipartRequest(t, "file", `C:\Users\me\people.csv`, content))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "people.csv", ing.gotName)
	assert.Equal(t, content, ing.gotContent)
	assert.Equal(t, "http", ing.gotOrigin.Channel)
	assert.NotEmpty(t, ing.gotOrigin.RemoteAddr)

	var resp IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, core.OutcomeSuccess, resp.Outcome)
	assert.Equal(t, int64(2), resp.RowCount)
	assert.Equal(t, "people.csv", resp.SourcePath)
	assert.Equal(t, "20240101_120000_people.csv", resp.ArchivedPath)
	assert.Nil(t, resp.Error)

	_, err := os.Stat(ing.gotPath)
	assert.True(t, os.IsNotExist(err), "staged upload should be removed")
}

func TestIngest_UploadTimeoutNotCappedByRequestTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RequestTimeout = time.Second
	cfg.Upload.Timeout = 10 * time.Minute

	ing := &fakeIngester{result: core.IngestResult{Outcome: core.OutcomeSuccess, State: core.StateReported}}
	users := &fakeUsers{}
	s := NewServer(cfg, ing, users, fakePool{})
	t.Cleanup(func() { s.Shutdown(context.Background()) }) //nolint:errcheck

	start := time.Now()
	rec := serve(s, multipartRequest(t, "file", "people.csv", "name,email,age\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.False(t, ing.gotDeadline.IsZero(), "ingest should run under the upload timeout")
	assert.Greater(t, ing.gotDeadline.Sub(start), time.Minute)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, users.gotDeadline.IsZero(), "other routes keep the request timeout")
	assert.LessOrEqual(t, users.gotDeadline.Sub(start), 2*time.Second)
}

func TestIngest_FailureStatuses(t *testing.T) {
	tests := []struct {
		name       string
		outcome    core.Outcome
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "rejected file",
			outcome:    core.OutcomeRejectedFile,
			err:        &core.Error{Kind: core.KindFileSelection, Op: "select", Category: "invalid_extension", Message: "not a csv"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE002",
		},
		{
			name:       "validation failed",
			outcome:    core.OutcomeValidationFailed,
			err:        &core.Error{Kind: core.KindValidation, Category: "disallowed_characters", Row: 1, Column: "email"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VAL001",
		},
		{
			name:       "pool exhausted",
			outcome:    core.OutcomeStoreFailed,
			err:        &core.Error{Kind: core.KindPoolExhausted, Category: "timeout"},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "POOL001",
		},
		{
			name:       "store failed",
			outcome:    core.OutcomeStoreFailed,
			err:        &core.Error{Kind: core.KindStore, Category: "unique_violation"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "DB001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := &fakeIngester{result: core.IngestResult{
				Outcome: tt.outcome,
				State:   core.StateFailed,
				Err:     tt.err,
				Reason:  tt.err.Error(),
			}}
			s := newTestServer(t, ing, nil)

			rec := serve(s, multipartRequest(t, "file", "users.csv", "name,email,age\n"))

			require.Equal(t, tt.wantStatus, rec.Code)
			var resp IngestResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.outcome, resp.Outcome)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Reason)
		})
	}
}

func TestIngest_MissingFileField(t *testing.T) {
	ing := &fakeIngester{}
	s := newTestServer(t, ing, nil)

	rec := serve(s, multipartRequest(t, "other", "users.csv", "x"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE003", resp.Code)
	assert.Empty(t, ing.gotPath, "ingester must not run")
}

func TestIngest_TooLarge(t *testing.T) {
	ing := &fakeIngester{}
	s := newTestServer(t, ing, nil)
	s.cfg.Upload.MaxFileSize = 10

	big := strings.Repeat("a", 3<<20)
	rec := serve(s, multipartRequest(t, "file", "users.csv", big))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE001", resp.Code)
	assert.Empty(t, ing.gotPath)
}

// =============================================================================
// Helpers
// =============================================================================

func TestUploadName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"users.csv", "users.csv"},
		{"/tmp/x/users.csv", "users.csv"},
		{`C:\data\users.csv`, "users.csv"},
		{"../../etc/passwd", "passwd"},
		{"..", "upload"},
		{"", "upload"},
	}
	for _, tt := range tests {
		if got := uploadName(tt.in); got != tt.want {
			t.Errorf("uploadName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("5.6.7.8"), "limits are per client")

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.allow("1.2.3.4"), "window resets")
}

func TestStatusFor(t *testing.T) {
	poolErr := &core.Error{Kind: core.KindPoolExhausted}
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(core.IngestResult{Outcome: core.OutcomeStoreFailed, Err: poolErr}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(core.IngestResult{Outcome: core.OutcomeStoreFailed, Err: errors.New("x")}))
}
