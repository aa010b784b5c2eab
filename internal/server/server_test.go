package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/wasilibs/go-rx/internal/config"
)

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	s := New(config.DefaultConfig())
	rec := do(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	require.Equal(t, "ok", body["status"])
	require.Contains(t, body["engines"], "re2")
}

func TestMatch(t *testing.T) {
	s := New(config.DefaultConfig())

	tests := []struct {
		name string
		body string
		want MatchResponse
	}{
		{
			name: "lua groups",
			body: `{"pattern": "(%a+)=(%d+)", "text": "x key=42 y"}`,
			want: MatchResponse{Matched: true, Groups: []Group{
				{Index: 0, Text: "key=42", Start: 2, End: 8},
				{Index: 1, Text: "key", Start: 2, End: 5},
				{Index: 2, Text: "42", Start: 6, End: 8},
			}},
		},
		{
			name: "no match",
			body: `{"pattern": "%d", "text": "abc"}`,
			want: MatchResponse{},
		},
		{
			name: "posix coregex",
			body: `{"pattern": "[a-z]+", "backend": "posix", "engine": "coregex", "text": "123abc"}`,
			want: MatchResponse{Matched: true, Groups: []Group{{Index: 0, Text: "abc", Start: 3, End: 6}}},
		},
		{
			name: "posix basic",
			body: `{"pattern": "\\(ab\\)*c", "backend": "posix", "syntax": "basic", "text": "xababc"}`,
			want: MatchResponse{Matched: true, Groups: []Group{
				{Index: 0, Text: "ababc", Start: 1, End: 6},
				{Index: 1, Text: "ab", Start: 3, End: 5},
			}},
		},
	}

	for _, tc := range tests {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/match", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			require.Equal(t, tt.want, decode[MatchResponse](t, rec))
		})
	}
}

func TestGmatch(t *testing.T) {
	s := New(config.DefaultConfig())

	rec := do(t, s, http.MethodPost, "/v1/gmatch", `{"pattern": "%d+", "text": "1 22 333"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, GmatchResponse{Matches: [][]Group{
		{{Index: 0, Text: "1", Start: 0, End: 1}},
		{{Index: 0, Text: "22", Start: 2, End: 4}},
		{{Index: 0, Text: "333", Start: 5, End: 8}},
	}}, decode[GmatchResponse](t, rec))

	rec = do(t, s, http.MethodPost, "/v1/gmatch", `{"pattern": "%d+", "text": "none"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"matches": []}`, rec.Body.String())
}

func TestGsub(t *testing.T) {
	s := New(config.DefaultConfig())

	tests := []struct {
		name string
		body string
		want GsubResponse
	}{
		{
			name: "template",
			body: `{"pattern": "(%w+)=(%w+)", "text": "a=1, b=2", "template": "%2=%1"}`,
			want: GsubResponse{Result: "1=a, 2=b", Count: 2},
		},
		{
			name: "lookup keeps unknown keys",
			body: `{"pattern": "%$(%w+)", "text": "hi $name $other", "lookup": {"name": "rx"}}`,
			want: GsubResponse{Result: "hi rx $other", Count: 2},
		},
		{
			name: "limit",
			body: `{"pattern": "o", "text": "foo boo", "template": "0", "limit": 2}`,
			want: GsubResponse{Result: "f00 boo", Count: 2},
		},
		{
			name: "no match",
			body: `{"pattern": "z", "text": "foo", "template": "y"}`,
			want: GsubResponse{Result: "foo", Count: 0},
		},
	}

	for _, tc := range tests {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/gsub", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			require.Equal(t, tt.want, decode[GsubResponse](t, rec))
		})
	}
}

func TestErrors(t *testing.T) {
	s := New(config.DefaultConfig())

	tests := []struct {
		name    string
		path    string
		body    string
		status  int
		message string
	}{
		{
			name:    "compile error",
			path:    "/v1/match",
			body:    `{"pattern": "(%a", "text": "x"}`,
			status:  http.StatusUnprocessableEntity,
			message: "unfinished capture",
		},
		{
			name:    "posix compile error",
			path:    "/v1/gmatch",
			body:    `{"pattern": "a(", "backend": "posix", "text": "x"}`,
			status:  http.StatusUnprocessableEntity,
			message: "error parsing posix pattern",
		},
		{
			name:    "unknown backend",
			path:    "/v1/match",
			body:    `{"pattern": "a", "backend": "perl", "text": "x"}`,
			status:  http.StatusBadRequest,
			message: `unknown backend "perl"`,
		},
		{
			name:    "empty pattern",
			path:    "/v1/match",
			body:    `{"pattern": "", "text": "x"}`,
			status:  http.StatusBadRequest,
			message: "invalid argument",
		},
		{
			name:    "template and lookup",
			path:    "/v1/gsub",
			body:    `{"pattern": "a", "text": "x", "template": "b", "lookup": {}}`,
			status:  http.StatusBadRequest,
			message: "exactly one of template and lookup",
		},
		{
			name:    "missing replacement",
			path:    "/v1/gsub",
			body:    `{"pattern": "a", "text": "x"}`,
			status:  http.StatusBadRequest,
			message: "exactly one of template and lookup",
		},
		{
			name:    "template capture index",
			path:    "/v1/gsub",
			body:    `{"pattern": "(a)", "text": "a", "template": "%2"}`,
			status:  http.StatusUnprocessableEntity,
			message: "invalid capture index %2",
		},
		{
			name:    "lookup without groups",
			path:    "/v1/gsub",
			body:    `{"pattern": "a", "text": "a", "lookup": {"a": "b"}}`,
			status:  http.StatusUnprocessableEntity,
			message: "out of range",
		},
	}

	for _, tc := range tests {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.Contains(t, decode[map[string]string](t, rec)["message"], tt.message)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	s := New(config.DefaultConfig())
	rec := do(t, s, http.MethodPost, "/v1/match", `{"pattern": `)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfiguredDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Backend = "posix"
	cfg.Engine = "coregex"
	s := New(cfg)

	rec := do(t, s, http.MethodPost, "/v1/match", `{"pattern": "[[:digit:]]+", "text": "ab12"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, MatchResponse{Matched: true, Groups: []Group{{Index: 0, Text: "12", Start: 2, End: 4}}},
		decode[MatchResponse](t, rec))

	rec = do(t, s, http.MethodPost, "/v1/match", `{"pattern": "%d+", "backend": "lua", "text": "ab12"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, MatchResponse{Matched: true, Groups: []Group{{Index: 0, Text: "12", Start: 2, End: 4}}},
		decode[MatchResponse](t, rec))
}
