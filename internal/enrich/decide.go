// Package enrich decides which paid lookups a contact needs and runs them.
package enrich

import (
	"github.com/sells-group/person-enricher/internal/cost"
	"github.com/sells-group/person-enricher/internal/model"
)

// Decide returns the APIs needed to fill the contact's gaps, each at most
// once, in dependency order: identity and company resolution come before
// email and description lookups. A complete contact needs nothing.
//
// Decide looks only at field presence; it never consults prior results.
func Decide(c model.Contact) []cost.API {
	if c.IsComplete() {
		return nil
	}

	var plan []cost.API
	if !c.Has(model.FieldLinkedInURL) || !c.Has(model.FieldCompanyName) {
		plan = append(plan, cost.SerpAPI)
	}
	if !c.Has(model.FieldTitle) && (c.Has(model.FieldLinkedInURL) || c.HasName()) {
		plan = append(plan, cost.ScrapinIO)
	}
	if !c.Has(model.FieldEmail) {
		plan = append(plan, cost.AnymailFinder)
	}
	if !c.Has(model.FieldCompanyDescription) {
		plan = append(plan, cost.ScrapeOwl)
	}
	return plan
}

// WorstCase is the most a pass over c could spend given its plan: every
// planned API plus the domain lookup that follows the identity search when
// no domain is known yet.
func WorstCase(c model.Contact, plan []cost.API, calc *cost.Calculator) float64 {
	total := calc.Total(plan)
	if contains(plan, cost.SerpAPI) && !c.Has(model.FieldCompanyDomain) {
		total += calc.Price(cost.SerpAPIDomain)
	}
	return total
}

func contains(plan []cost.API, api cost.API) bool {
	for _, p := range plan {
		if p == api {
			return true
		}
	}
	return false
}
