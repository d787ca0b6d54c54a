package provider

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/person-enricher/internal/cost"
	"github.com/sells-group/person-enricher/internal/model"
	"github.com/sells-group/person-enricher/pkg/anymailfinder"
)

// EmailFinder discovers a work address from a name and company domain.
type EmailFinder struct {
	client anymailfinder.Client
}

// NewEmailFinder creates the email discovery adapter. A nil client means the
// AnymailFinder key is not configured.
func NewEmailFinder(client anymailfinder.Client) *EmailFinder {
	return &EmailFinder{client: client}
}

// API implements Provider.
func (p *EmailFinder) API() cost.API { return cost.AnymailFinder }

// Attempt implements Provider. Without both a domain and a name no request
// is made.
func (p *EmailFinder) Attempt(ctx context.Context, c model.Contact) (*Result, error) {
	if p.client == nil {
		return nil, &ConfigError{API: cost.AnymailFinder, Key: "anymailfinder.key"}
	}

	domain := strings.TrimSpace(c.CompanyDomain)
	name := c.DisplayName()
	if domain == "" || name == "" {
		zap.L().Debug("email: missing domain or name, skipping",
			zap.String("contact", c.ID),
		)
		return skipped(), nil
	}

	resp, err := p.client.FindPerson(ctx, anymailfinder.PersonRequest{
		FullName: name,
		Domain:   domain,
	})
	if err != nil {
		zap.L().Warn("email: anymailfinder lookup failed",
			zap.String("contact", c.ID),
			zap.String("domain", domain),
			zap.Error(err),
		)
		return called(nil), nil
	}

	fields := model.Partial{}
	if resp.Success && resp.Results.Email != "" {
		fields[model.FieldEmail] = resp.Results.Email
	}
	return called(fields), nil
}
