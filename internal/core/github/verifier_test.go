package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treeBody = `{
	"tree": [
		{"path": "api/server.go", "type": "blob"},
		{"path": "api/auth/session.go", "type": "blob"},
		{"path": "web/src/pages/Login.tsx", "type": "blob"},
		{"path": "web/src/components/Login.tsx", "type": "blob"},
		{"path": "api", "type": "tree"}
	],
	"truncated": false
}`

func newTestVerifier(t *testing.T, handler http.HandlerFunc) (*Verifier, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	v := NewVerifier("test-token")
	v.baseURL = srv.URL
	return v, srv
}

func TestVerifyFilesSplitsVerifiedAndMissing(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/app/git/trees/main", r.URL.Path)
		assert.Equal(t, "recursive=1", r.URL.RawQuery)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(treeBody))
	})

	report, err := v.VerifyFiles(context.Background(), "acme/app", "main", []string{
		"api/server.go",
		"/api/auth/session.go", // leading slash is tolerated
		"api/handlers/missing.go",
	})
	require.NoError(t, err)

	assert.Equal(t, "acme/app", report.Repo)
	assert.Equal(t, 3, report.TotalChecked)
	assert.Equal(t, []string{"api/server.go", "api/auth/session.go"}, report.VerifiedFiles)
	require.Len(t, report.MissingFiles, 1)
	assert.Equal(t, "api/handlers/missing.go", report.MissingFiles[0].Path)
	assert.InDelta(t, 2.0/3.0, report.VerificationRate, 1e-9)
}

func TestVerifyFilesSuggestsByBasename(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(treeBody))
	})

	report, err := v.VerifyFiles(context.Background(), "acme/app", "main",
		[]string{"src/Login.tsx"})
	require.NoError(t, err)

	require.Len(t, report.MissingFiles, 1)
	// Both Login.tsx files in the tree are offered.
	assert.ElementsMatch(t, []string{
		"web/src/pages/Login.tsx",
		"web/src/components/Login.tsx",
	}, report.MissingFiles[0].Suggestions)
}

func TestVerifyFilesSuggestsByStem(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(treeBody))
	})

	// Wrong extension: Login.jsx has no basename match but shares the stem.
	report, err := v.VerifyFiles(context.Background(), "acme/app", "main",
		[]string{"src/Login.jsx"})
	require.NoError(t, err)

	require.Len(t, report.MissingFiles, 1)
	assert.NotEmpty(t, report.MissingFiles[0].Suggestions)
}

func TestVerifyFilesCachesTree(t *testing.T) {
	var fetches int32
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		_, _ = w.Write([]byte(treeBody))
	})

	for i := 0; i < 3; i++ {
		_, err := v.VerifyFiles(context.Background(), "acme/app", "main", []string{"api/server.go"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))

	// A different branch is a different cache entry.
	_, err := v.VerifyFiles(context.Background(), "acme/app", "develop", []string{"api/server.go"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))
}

func TestVerifyFilesDefaultsBranch(t *testing.T) {
	var gotPath string
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(treeBody))
	})

	_, err := v.VerifyFiles(context.Background(), "acme/app", "", []string{"api/server.go"})
	require.NoError(t, err)
	assert.Equal(t, "/repos/acme/app/git/trees/main", gotPath)
}

func TestVerifyFilesUpstreamError(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := v.VerifyFiles(context.Background(), "acme/gone", "main", []string{"api/server.go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestVerifyFilesEmptyRepo(t *testing.T) {
	v := NewVerifier("")
	_, err := v.VerifyFiles(context.Background(), "", "main", []string{"api/server.go"})
	require.Error(t, err)
}
