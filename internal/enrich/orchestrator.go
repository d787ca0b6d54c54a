package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/person-enricher/internal/cost"
	"github.com/sells-group/person-enricher/internal/enrich/provider"
	"github.com/sells-group/person-enricher/internal/metrics"
	"github.com/sells-group/person-enricher/internal/model"
)

// Outcome is the result of one enrichment pass.
type Outcome struct {
	Contact model.Contact `json:"contact"`
	// Invoked lists every billable call made, in order.
	Invoked []cost.API `json:"invoked"`
	// Cost is the USD spent by this pass.
	Cost float64 `json:"cost"`
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records provider calls and final statuses on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// Orchestrator runs the planned providers for a contact in stage order and
// merges their results without overwriting existing data.
type Orchestrator struct {
	registry *provider.Registry
	calc     *cost.Calculator
	metrics  *metrics.Manager
}

// NewOrchestrator creates an Orchestrator over the registered providers.
func NewOrchestrator(registry *provider.Registry, calc *cost.Calculator, opts ...Option) *Orchestrator {
	o := &Orchestrator{registry: registry, calc: calc}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enrich runs one pass over c and returns the updated copy. The input is not
// modified.
//
// Provider failures are absorbed and the pass continues. An error from a
// provider (missing credentials) or a cancelled context stops the pass: the
// returned Outcome carries the contact in error status with the cost accrued
// so far, and the error is returned alongside it.
func (o *Orchestrator) Enrich(ctx context.Context, in model.Contact) (*Outcome, error) {
	c := in.Clone()
	if c.EnrichedFields == nil {
		c.EnrichedFields = []model.Field{}
	}
	out := &Outcome{Invoked: []cost.API{}}
	log := zap.L().With(zap.String("contact", c.ID))

	if err := c.Transition(model.StatusInProgress); err != nil {
		return nil, eris.Wrapf(err, "enrich: start contact %s", c.ID)
	}

	if c.IsComplete() {
		log.Debug("enrich: contact already complete, no calls needed")
		return o.finish(c, out)
	}

	plan := Decide(c)
	log.Debug("enrich: plan decided", zap.Any("plan", plan))

	// Identity and company resolution.
	// The domain lookup is a follow-up to the identity search and never runs
	// on its own.
	if contains(plan, cost.SerpAPI) {
		if err := o.attempt(ctx, cost.SerpAPI, &c, out); err != nil {
			return o.fail(c, out, err)
		}
		if c.Has(model.FieldCompanyName) && !c.Has(model.FieldCompanyDomain) {
			if err := o.attempt(ctx, cost.SerpAPIDomain, &c, out); err != nil {
				return o.fail(c, out, err)
			}
		}
	}

	// Profile detail, only while identity data is still incomplete.
	if contains(plan, cost.ScrapinIO) &&
		(!c.Has(model.FieldTitle) || !c.Has(model.FieldLinkedInURL)) {
		if err := o.attempt(ctx, cost.ScrapinIO, &c, out); err != nil {
			return o.fail(c, out, err)
		}
	}

	// Email and description need someone to look for at a known company.
	if !c.HasName() || !c.HasCompanySignal() {
		log.Debug("enrich: no name or company signal, skipping email and description")
		return o.finish(c, out)
	}

	if contains(plan, cost.AnymailFinder) && !c.Has(model.FieldEmail) {
		if err := o.attempt(ctx, cost.AnymailFinder, &c, out); err != nil {
			return o.fail(c, out, err)
		}
	}
	if contains(plan, cost.ScrapeOwl) && !c.Has(model.FieldCompanyDescription) {
		if err := o.attempt(ctx, cost.ScrapeOwl, &c, out); err != nil {
			return o.fail(c, out, err)
		}
	}

	return o.finish(c, out)
}

// attempt runs one provider and charges for it when a call was made.
func (o *Orchestrator) attempt(ctx context.Context, api cost.API, c *model.Contact, out *Outcome) error {
	p := o.registry.Get(api)
	if p == nil {
		zap.L().Debug("enrich: provider not registered, skipping",
			zap.String("contact", c.ID),
			zap.String("api", string(api)),
		)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrapf(err, "enrich: %s", api)
	}

	res, err := p.Attempt(ctx, *c)
	if err != nil {
		o.metrics.ProviderCall(string(api), metrics.OutcomeError, 0)
		return eris.Wrapf(err, "enrich: %s", api)
	}
	if res == nil || !res.Called {
		o.metrics.ProviderCall(string(api), metrics.OutcomeSkipped, 0)
		return nil
	}

	price := o.calc.Price(api)
	if err := c.AddCost(price); err != nil {
		return eris.Wrapf(err, "enrich: charge %s", api)
	}
	out.Invoked = append(out.Invoked, api)
	out.Cost += price

	written := c.Merge(res.Fields)
	outcome := metrics.OutcomeMiss
	if len(res.Fields) > 0 {
		outcome = metrics.OutcomeHit
	}
	o.metrics.ProviderCall(string(api), outcome, price)
	for _, f := range written {
		o.metrics.FieldFilled(string(f))
	}

	zap.L().Debug("enrich: provider call complete",
		zap.String("contact", c.ID),
		zap.String("api", string(api)),
		zap.Int("fields_returned", len(res.Fields)),
		zap.Int("fields_written", len(written)),
		zap.Float64("cost", price),
	)
	return nil
}

func (o *Orchestrator) finish(c model.Contact, out *Outcome) (*Outcome, error) {
	if c.IsComplete() {
		if err := c.Transition(model.StatusEnriched); err != nil {
			return nil, eris.Wrapf(err, "enrich: finish contact %s", c.ID)
		}
	}
	out.Contact = c
	o.metrics.ContactFinished(string(c.Status))
	return out, nil
}

func (o *Orchestrator) fail(c model.Contact, out *Outcome, cause error) (*Outcome, error) {
	zap.L().Error("enrich: pass stopped",
		zap.String("contact", c.ID),
		zap.Float64("cost", c.Cost),
		zap.Error(cause),
	)
	if err := c.Fail(cause.Error()); err != nil {
		return nil, eris.Wrapf(err, "enrich: fail contact %s", c.ID)
	}
	out.Contact = c
	o.metrics.ContactFinished(string(c.Status))
	return out, cause
}
