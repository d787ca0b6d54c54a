package provider

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/person-enricher/internal/cost"
	"github.com/sells-group/person-enricher/internal/model"
	"github.com/sells-group/person-enricher/pkg/serpapi"
)

// profileHost is the substring a result link must contain to count as a profile.
const profileHost = "linkedin.com"

// titleSeparator splits "Name - Title - Company" result titles.
const titleSeparator = " - "

// linkedInSuffix matches the " | LinkedIn" tail Google appends to profile titles.
var linkedInSuffix = regexp.MustCompile(`(?i)\s*\|\s*linkedin\s*$`)

// parenthetical matches qualifiers such as "(US)" or "(formerly Foo)".
var parenthetical = regexp.MustCompile(`\s*\(.*?\)\s*`)

// IdentitySearch finds a person's LinkedIn profile through a Google search
// and infers title and company from the result title.
type IdentitySearch struct {
	client serpapi.Client
}

// NewIdentitySearch creates the identity/company search adapter. A nil client
// means the SerpAPI key is not configured.
func NewIdentitySearch(client serpapi.Client) *IdentitySearch {
	return &IdentitySearch{client: client}
}

// API implements Provider.
func (p *IdentitySearch) API() cost.API { return cost.SerpAPI }

// Attempt implements Provider.
func (p *IdentitySearch) Attempt(ctx context.Context, c model.Contact) (*Result, error) {
	if p.client == nil {
		return nil, &ConfigError{API: cost.SerpAPI, Key: "serpapi.key"}
	}
	if !c.HasName() {
		return skipped(), nil
	}

	query := IdentityQuery(c)
	resp, err := p.client.Search(ctx, query)
	if err != nil {
		zap.L().Warn("identity: serpapi search failed",
			zap.String("contact", c.ID),
			zap.String("query", query),
			zap.Error(err),
		)
		return called(nil), nil
	}

	fields := model.Partial{}
	for _, r := range resp.OrganicResults {
		if !strings.Contains(strings.ToLower(r.Link), profileHost) {
			continue
		}
		fields[model.FieldLinkedInURL] = r.Link
		title, company := ParseProfileTitle(r.Title)
		if title != "" {
			fields[model.FieldTitle] = title
		}
		if company != "" {
			fields[model.FieldCompanyName] = company
		}
		break
	}

	return called(fields), nil
}

// IdentityQuery builds "<name> <company> site:linkedin.com/in".
func IdentityQuery(c model.Contact) string {
	parts := []string{c.DisplayName()}
	if c.Has(model.FieldCompanyName) {
		parts = append(parts, strings.TrimSpace(c.CompanyName))
	}
	parts = append(parts, "site:linkedin.com/in")
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// ParseProfileTitle splits a "Name - Title - Company" search result title.
// The company is the text after the last separator; the title is whatever
// sits between the leading name and the company.
func ParseProfileTitle(raw string) (title, company string) {
	raw = linkedInSuffix.ReplaceAllString(strings.TrimSpace(raw), "")
	parts := strings.Split(raw, titleSeparator)
	if len(parts) < 2 {
		return "", ""
	}
	company = strings.TrimSpace(parts[len(parts)-1])
	// The company segment is never reused as the title, so "Name - Company"
	// yields no title.
	if len(parts) > 2 {
		title = strings.TrimSpace(strings.Join(parts[1:len(parts)-1], titleSeparator))
	}
	return title, company
}

// DomainResolver looks up a company's website hostname.
type DomainResolver struct {
	client serpapi.Client
}

// NewDomainResolver creates the domain resolver adapter. A nil client means
// the SerpAPI key is not configured.
func NewDomainResolver(client serpapi.Client) *DomainResolver {
	return &DomainResolver{client: client}
}

// API implements Provider.
func (p *DomainResolver) API() cost.API { return cost.SerpAPIDomain }

// Attempt implements Provider.
func (p *DomainResolver) Attempt(ctx context.Context, c model.Contact) (*Result, error) {
	if p.client == nil {
		return nil, &ConfigError{API: cost.SerpAPIDomain, Key: "serpapi.key"}
	}
	name := CleanCompanyName(c.CompanyName)
	if name == "" {
		return skipped(), nil
	}

	query := name + " official website"
	resp, err := p.client.Search(ctx, query)
	if err != nil {
		zap.L().Warn("domain: serpapi search failed",
			zap.String("contact", c.ID),
			zap.String("company", name),
			zap.Error(err),
		)
		return called(nil), nil
	}

	var candidate string
	if resp.KnowledgeGraph != nil && resp.KnowledgeGraph.Website != "" {
		candidate = resp.KnowledgeGraph.Website
	} else if len(resp.OrganicResults) > 0 {
		candidate = resp.OrganicResults[0].Link
	}

	fields := model.Partial{}
	if host := Hostname(candidate); host != "" {
		fields[model.FieldCompanyDomain] = host
	}
	return called(fields), nil
}

// CleanCompanyName drops parenthetical qualifiers and collapses whitespace.
func CleanCompanyName(name string) string {
	name = parenthetical.ReplaceAllString(name, " ")
	return strings.Join(strings.Fields(name), " ")
}

// Hostname extracts the lowercase host of a URL without a leading "www.".
// Bare hosts such as "acme.com" are accepted.
func Hostname(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
