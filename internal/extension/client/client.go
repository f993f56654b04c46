package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/markdave123-py/ticketlens/internal/models"
)

// ErrAnalyzePending means an analyze call is already in flight. The trigger
// stays disabled until the first call completes or fails, so rapid repeat
// triggers produce exactly one network call.
var ErrAnalyzePending = errors.New("analysis already in progress")

// APIError is a non-success backend response, carrying the HTTP status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// TokenSource supplies the bearer token attached to every backend call.
type TokenSource interface {
	IDToken(ctx context.Context, forceRefresh bool) (string, error)
}

// Client talks to the TicketLens backend. One network call per operation,
// no retries; the caller decides what to show.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource

	analyzing atomic.Bool
}

func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		tokens:     tokens,
	}
}

type analyzeRequest struct {
	TicketText string `json:"ticket_text"`
	TicketKey  string `json:"ticket_key"`
}

// Analyze sends the extracted ticket text for prediction. While one call is
// pending further calls fail fast with ErrAnalyzePending.
func (c *Client) Analyze(ctx context.Context, ticketText, ticketKey string) (*models.PredictionResult, error) {
	if !c.analyzing.CompareAndSwap(false, true) {
		return nil, ErrAnalyzePending
	}
	defer c.analyzing.Store(false)

	var result models.PredictionResult
	err := c.post(ctx, "/analyze", analyzeRequest{TicketText: ticketText, TicketKey: ticketKey}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckUsage fetches the caller's remaining monthly quota.
func (c *Client) CheckUsage(ctx context.Context) (*models.UsageStatus, error) {
	var status models.UsageStatus
	if err := c.get(ctx, "/usage/check", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

type registerRequest struct {
	FirebaseUID string `json:"firebase_uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

// Register syncs the signed-in identity to the backend. Idempotent.
func (c *Client) Register(ctx context.Context, uid, email, displayName, photoURL string) error {
	return c.post(ctx, "/auth/register", registerRequest{
		FirebaseUID: uid,
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
	}, nil)
}

type feedbackRequest struct {
	AnalysisID     string `json:"analysis_id"`
	WasAccurate    bool   `json:"was_accurate"`
	AccuracyRating int    `json:"accuracy_rating"`
	UserComment    string `json:"user_comment"`
}

// SubmitFeedback rates a past analysis.
func (c *Client) SubmitFeedback(ctx context.Context, analysisID string, wasAccurate bool, rating int, comment string) error {
	return c.post(ctx, "/feedback", feedbackRequest{
		AnalysisID:     analysisID,
		WasAccurate:    wasAccurate,
		AccuracyRating: rating,
		UserComment:    comment,
	}, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	token, err := c.tokens.IDToken(req.Context(), false)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Message = body.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	// Tolerant decode: fields the backend omits stay zero-valued.
	return json.NewDecoder(resp.Body).Decode(out)
}
