package provider

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/person-enricher/internal/cost"
	"github.com/sells-group/person-enricher/internal/model"
	"github.com/sells-group/person-enricher/pkg/scrapin"
)

// ProfileLookup fetches LinkedIn profile detail from Scrapin.io.
type ProfileLookup struct {
	client scrapin.Client
}

// NewProfileLookup creates the profile enrichment adapter. A nil client means
// the Scrapin.io key is not configured.
func NewProfileLookup(client scrapin.Client) *ProfileLookup {
	return &ProfileLookup{client: client}
}

// API implements Provider.
func (p *ProfileLookup) API() cost.API { return cost.ScrapinIO }

// Attempt implements Provider.
func (p *ProfileLookup) Attempt(ctx context.Context, c model.Contact) (*Result, error) {
	if p.client == nil {
		return nil, &ConfigError{API: cost.ScrapinIO, Key: "scrapin.key"}
	}
	if !c.HasName() {
		return skipped(), nil
	}

	resp, err := p.client.SearchPerson(ctx, scrapin.PersonSearchRequest{
		FullName:    c.DisplayName(),
		CompanyName: c.CompanyName,
	})
	if err != nil {
		zap.L().Warn("profile: scrapin search failed",
			zap.String("contact", c.ID),
			zap.Error(err),
		)
		return called(nil), nil
	}

	fields := model.Partial{}
	profile := resp.Data.LinkedInProfile
	if profile == nil {
		return called(fields), nil
	}

	if profile.LinkedInURL != "" {
		fields[model.FieldLinkedInURL] = profile.LinkedInURL
	}
	if len(profile.Positions) > 0 {
		current := profile.Positions[0]
		if current.Title != "" {
			fields[model.FieldTitle] = current.Title
		}
		if current.CompanyName != "" {
			fields[model.FieldCompanyName] = current.CompanyName
		}
		if host := Hostname(current.CompanyURL); host != "" {
			fields[model.FieldCompanyDomain] = host
		}
	}
	if _, ok := fields[model.FieldTitle]; !ok && profile.Headline != "" {
		fields[model.FieldTitle] = profile.Headline
	}

	return called(fields), nil
}
