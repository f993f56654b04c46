package overlay

import (
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/markdave123-py/ticketlens/internal/models"
)

// Badge thresholds for the confidence score.
const (
	highThreshold   = 0.8
	mediumThreshold = 0.6
)

// BadgeClass maps a confidence score onto the rendered badge class.
func BadgeClass(score float64) string {
	switch {
	case score >= highThreshold:
		return "high"
	case score >= mediumThreshold:
		return "medium"
	default:
		return "low"
	}
}

var resultTemplate = template.Must(template.New("result").Funcs(template.FuncMap{
	"badge": BadgeClass,
	"pct":   func(score float64) int { return int(score * 100) },
}).Parse(`<div class="ticketlens-overlay">
  <div class="ticketlens-header">
    <span class="ticketlens-title">Predicted files{{if .TicketKey}} for {{.TicketKey}}{{end}}</span>
    <span class="ticketlens-badge ticketlens-badge-{{badge .ConfidenceScore}}">{{pct .ConfidenceScore}}% confidence</span>
  </div>
  <div class="ticketlens-total">{{.TotalFiles}} file(s) predicted</div>
{{- range .Categories}}{{if .Files}}
  <div class="ticketlens-category">
    <div class="ticketlens-category-name">{{.Label}} ({{len .Files}})</div>
    <ul>
{{- range .Files}}
      <li>{{.}}</li>
{{- end}}
    </ul>
  </div>
{{- end}}{{end}}
{{- if .Reasoning}}
  <div class="ticketlens-reasoning">{{.Reasoning}}</div>
{{- end}}
</div>`))

var errorTemplate = template.Must(template.New("error").Parse(`<div class="ticketlens-overlay ticketlens-overlay-error">
  <div class="ticketlens-header">
    <span class="ticketlens-title">Analysis failed</span>
  </div>
  <div class="ticketlens-error-message">{{.Message}}</div>
  <div class="ticketlens-error-hint">{{.Hint}}</div>
</div>`))

const remediationHint = "Reload the ticket page and try again. If the problem persists, check that you are signed in."

// Manager renders overlay fragments and keeps at most one current at a time:
// rendering replaces whatever was shown before, never stacks.
type Manager struct {
	mu      sync.Mutex
	current string
}

func NewManager() *Manager {
	return &Manager{}
}

// RenderResult renders the success view. All predictor-supplied strings pass
// through html/template escaping, so markup in filenames stays inert.
func (m *Manager) RenderResult(res *models.PredictionResult) (string, error) {
	var b strings.Builder
	if err := resultTemplate.Execute(&b, res); err != nil {
		return "", fmt.Errorf("render result: %w", err)
	}
	return m.swap(b.String()), nil
}

// RenderError renders the error view with the static remediation hint.
func (m *Manager) RenderError(message string) (string, error) {
	var b strings.Builder
	err := errorTemplate.Execute(&b, struct {
		Message string
		Hint    string
	}{Message: message, Hint: remediationHint})
	if err != nil {
		return "", fmt.Errorf("render error: %w", err)
	}
	return m.swap(b.String()), nil
}

// Current returns the overlay on display, or empty when cleared.
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Clear removes the current overlay.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = ""
}

func (m *Manager) swap(fragment string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = fragment
	return fragment
}
