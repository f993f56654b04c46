package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/models"
)

// Selector candidates are ordered: current issue-view layout first, then the
// legacy layout, then a generic fallback. First match wins.
var titleSelectors = []string{
	`h1[data-testid="issue.views.issue-base.foundation.summary.heading"]`,
	`#summary-val`,
	`h1`,
}

var descriptionSelectors = []string{
	`div[data-testid="issue.views.field.rich-text.description"]`,
	`#description-val`,
	`div[role="main"] .description`,
}

// FromReader parses a ticket page and extracts its key, title and
// description. Read-only; fails with core.ErrExtraction when no description
// candidate matches.
func FromReader(r io.Reader, pageURL string) (*models.Ticket, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return FromDocument(doc, pageURL)
}

// FromDocument extracts from an already parsed page.
func FromDocument(doc *goquery.Document, pageURL string) (*models.Ticket, error) {
	description := firstMatch(doc, descriptionSelectors)
	if description == "" {
		return nil, fmt.Errorf("%w on %s", core.ErrExtraction, pageURL)
	}

	return &models.Ticket{
		Key:         KeyFromURL(pageURL),
		Title:       firstMatch(doc, titleSelectors),
		Description: description,
	}, nil
}

// KeyFromURL derives the ticket identifier from the final path segment,
// e.g. https://tracker.example.com/browse/PROJ-123 -> PROJ-123.
func KeyFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	path := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func firstMatch(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}
