package provider

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/person-enricher/internal/cost"
	"github.com/sells-group/person-enricher/internal/model"
	"github.com/sells-group/person-enricher/pkg/scrapeowl"
)

const (
	// minSnippetLen is the shortest trimmed snippet worth keeping, in characters.
	minSnippetLen = 30
	// maxSnippets is how many snippets make up a description.
	maxSnippets = 3
)

// DescriptionFinder scrapes a company's homepage headings and paragraphs
// into a short description.
type DescriptionFinder struct {
	client scrapeowl.Client
}

// NewDescriptionFinder creates the description adapter. A nil client means
// the ScrapeOwl key is not configured.
func NewDescriptionFinder(client scrapeowl.Client) *DescriptionFinder {
	return &DescriptionFinder{client: client}
}

// API implements Provider.
func (p *DescriptionFinder) API() cost.API { return cost.ScrapeOwl }

// Attempt implements Provider.
func (p *DescriptionFinder) Attempt(ctx context.Context, c model.Contact) (*Result, error) {
	if p.client == nil {
		return nil, &ConfigError{API: cost.ScrapeOwl, Key: "scrapeowl.key"}
	}
	domain := strings.TrimSpace(c.CompanyDomain)
	if domain == "" {
		return skipped(), nil
	}

	target := domain
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	resp, err := p.client.Scrape(ctx, scrapeowl.ScrapeRequest{
		URL:      target,
		Elements: []scrapeowl.Element{scrapeowl.CSS("h1"), scrapeowl.CSS("p")},
	})
	if err != nil {
		zap.L().Warn("description: scrapeowl scrape failed",
			zap.String("contact", c.ID),
			zap.String("url", target),
			zap.Error(err),
		)
		return called(nil), nil
	}

	fields := model.Partial{}
	snippets := MeaningfulSnippets(resp.Texts(), maxSnippets)
	if desc := strings.TrimSpace(strings.Join(snippets, " ")); desc != "" {
		fields[model.FieldCompanyDescription] = desc
	}
	return called(fields), nil
}

// MeaningfulSnippets returns up to limit trimmed texts that read like prose:
// at least 30 characters, at least one letter, terminal punctuation, and not
// already accepted.
func MeaningfulSnippets(texts []string, limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range texts {
		if limit > 0 && len(out) >= limit {
			break
		}
		trimmed := strings.TrimSpace(t)
		if !isMeaningful(trimmed) {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func isMeaningful(s string) bool {
	if utf8.RuneCountInString(s) < minSnippetLen {
		return false
	}
	if !strings.ContainsFunc(s, unicode.IsLetter) {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(s)
	return last == '.' || last == '?' || last == '!'
}
