package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/models"
)

const defaultBaseURL = "https://api.github.com"

// Verifier checks predicted file paths against a GitHub repository using the
// git tree API. One tree fetch covers every path in a request; trees are
// cached for a short TTL so bursts of analyses don't burn rate limit.
type Verifier struct {
	httpClient *http.Client
	token      string
	baseURL    string

	mu    sync.Mutex
	trees map[string]*cachedTree
	ttl   time.Duration
}

type cachedTree struct {
	paths     map[string]struct{}
	byBase    map[string][]string
	fetchedAt time.Time
}

func NewVerifier(token string) *Verifier {
	return &Verifier{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
		baseURL:    defaultBaseURL,
		trees:      make(map[string]*cachedTree),
		ttl:        5 * time.Minute,
	}
}

// VerifyFiles splits paths into verified and missing, and suggests up to three
// existing paths sharing the basename of each missing one.
func (v *Verifier) VerifyFiles(ctx context.Context, repo, branch string, paths []string) (*models.VerificationReport, error) {
	if repo == "" {
		return nil, fmt.Errorf("empty repo")
	}
	if branch == "" {
		branch = "main"
	}

	tree, err := v.tree(ctx, repo, branch)
	if err != nil {
		return nil, err
	}

	report := &models.VerificationReport{
		Repo:         repo,
		Branch:       branch,
		TotalChecked: len(paths),
	}
	for _, p := range paths {
		clean := strings.TrimPrefix(strings.TrimSpace(p), "/")
		if _, ok := tree.paths[clean]; ok {
			report.VerifiedFiles = append(report.VerifiedFiles, clean)
			continue
		}
		report.MissingFiles = append(report.MissingFiles, models.MissingFile{
			Path:        clean,
			Suggestions: tree.suggest(clean, 3),
		})
	}
	if len(paths) > 0 {
		report.VerificationRate = float64(len(report.VerifiedFiles)) / float64(len(paths))
	}
	return report, nil
}

func (v *Verifier) tree(ctx context.Context, repo, branch string) (*cachedTree, error) {
	key := repo + "@" + branch

	v.mu.Lock()
	if t, ok := v.trees[key]; ok && time.Since(t.fetchedAt) < v.ttl {
		v.mu.Unlock()
		return t, nil
	}
	v.mu.Unlock()

	t, err := v.fetchTree(ctx, repo, branch)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.trees[key] = t
	v.mu.Unlock()
	return t, nil
}

func (v *Verifier) fetchTree(ctx context.Context, repo, branch string) (*cachedTree, error) {
	url := fmt.Sprintf("%s/repos/%s/git/trees/%s?recursive=1", v.baseURL, repo, branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if v.token != "" {
		req.Header.Set("Authorization", "Bearer "+v.token)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tree %s@%s: %w", repo, branch, err)
	}
	defer resp.Body.Close()

	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		if n, err := strconv.Atoi(remaining); err == nil && n < 10 {
			log.Printf("WARN: github rate limit low: %d requests remaining", n)
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch tree %s@%s: status %d", repo, branch, resp.StatusCode)
	}

	var body struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	if body.Truncated {
		log.Printf("WARN: git tree for %s@%s truncated; verification may report false misses", repo, branch)
	}

	t := &cachedTree{
		paths:     make(map[string]struct{}, len(body.Tree)),
		byBase:    make(map[string][]string),
		fetchedAt: time.Now(),
	}
	for _, e := range body.Tree {
		if e.Type != "blob" {
			continue
		}
		t.paths[e.Path] = struct{}{}
		base := strings.ToLower(path.Base(e.Path))
		t.byBase[base] = append(t.byBase[base], e.Path)
	}
	return t, nil
}

// suggest returns existing paths whose basename matches the missing path's,
// falling back to a match on the name without its extension.
func (t *cachedTree) suggest(missing string, max int) []string {
	base := strings.ToLower(path.Base(missing))
	if hits := t.byBase[base]; len(hits) > 0 {
		if len(hits) > max {
			hits = hits[:max]
		}
		return hits
	}

	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" {
		return nil
	}
	var hits []string
	for b, paths := range t.byBase {
		if strings.TrimSuffix(b, path.Ext(b)) != stem {
			continue
		}
		hits = append(hits, paths...)
		if len(hits) >= max {
			return hits[:max]
		}
	}
	return hits
}

var _ core.FileVerifier = (*Verifier)(nil)
