package enrich

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/person-enricher/internal/cost"
	"github.com/sells-group/person-enricher/internal/enrich/provider"
	"github.com/sells-group/person-enricher/internal/metrics"
	"github.com/sells-group/person-enricher/internal/model"
)

// fakeProvider returns canned fields and records every contact it sees.
type fakeProvider struct {
	api    cost.API
	fields model.Partial
	skip   bool
	err    error

	mu   sync.Mutex
	seen []model.Contact
}

func (f *fakeProvider) API() cost.API { return f.api }

func (f *fakeProvider) Attempt(_ context.Context, c model.Contact) (*provider.Result, error) {
	f.mu.Lock()
	f.seen = append(f.seen, c)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.skip {
		return &provider.Result{Fields: model.Partial{}}, nil
	}
	fields := model.Partial{}
	for k, v := range f.fields {
		fields[k] = v
	}
	return &provider.Result{Fields: fields, Called: true}, nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

type fakes struct {
	identity    *fakeProvider
	domain      *fakeProvider
	profile     *fakeProvider
	email       *fakeProvider
	description *fakeProvider
}

func newFakes() *fakes {
	return &fakes{
		identity: &fakeProvider{api: cost.SerpAPI, fields: model.Partial{
			model.FieldLinkedInURL: "https://www.linkedin.com/in/janedoe",
			model.FieldTitle:       "VP Sales",
			model.FieldCompanyName: "Acme Corporation",
		}},
		domain: &fakeProvider{api: cost.SerpAPIDomain, fields: model.Partial{
			model.FieldCompanyDomain: "acme.com",
		}},
		profile: &fakeProvider{api: cost.ScrapinIO, fields: model.Partial{
			model.FieldTitle: "Head of Sales",
		}},
		email: &fakeProvider{api: cost.AnymailFinder, fields: model.Partial{
			model.FieldEmail: "jane@acme.com",
		}},
		description: &fakeProvider{api: cost.ScrapeOwl, fields: model.Partial{
			model.FieldCompanyDescription: "Acme builds rockets for the modern coyote.",
		}},
	}
}

func (f *fakes) registry() *provider.Registry {
	return provider.NewRegistry(f.identity, f.domain, f.profile, f.email, f.description)
}

func (f *fakes) total() int {
	return f.identity.calls() + f.domain.calls() + f.profile.calls() + f.email.calls() + f.description.calls()
}

func newTestOrchestrator(reg *provider.Registry, opts ...Option) *Orchestrator {
	return NewOrchestrator(reg, cost.NewCalculator(cost.DefaultRates()), opts...)
}

func janeDoe() model.Contact {
	c := model.NewContact("jane")
	c.FullName = "Jane Doe"
	c.CompanyName = "Acme"
	return c
}

func TestEnrich_NameAndCompany(t *testing.T) {
	f := newFakes()
	o := newTestOrchestrator(f.registry())

	out, err := o.Enrich(context.Background(), janeDoe())
	require.NoError(t, err)

	c := out.Contact
	assert.Equal(t, model.StatusEnriched, c.Status)
	assert.Equal(t, "https://www.linkedin.com/in/janedoe", c.LinkedInURL)
	assert.Equal(t, "VP Sales", c.Title)
	assert.Equal(t, "Acme", c.CompanyName, "user-supplied company name wins")
	assert.Equal(t, "acme.com", c.CompanyDomain)
	assert.Equal(t, "jane@acme.com", c.Email)
	assert.Equal(t, "Acme builds rockets for the modern coyote.", c.CompanyDescription)

	assert.Equal(t, []cost.API{cost.SerpAPI, cost.SerpAPIDomain, cost.AnymailFinder, cost.ScrapeOwl}, out.Invoked)
	assert.InDelta(t, 0.01+0.01+0.05+0.14, c.Cost, 1e-9)
	assert.InDelta(t, c.Cost, out.Cost, 1e-9)
	assert.Equal(t, 0, f.profile.calls(), "profile lookup not needed once identity filled title and linkedin")
	assert.Equal(t, []model.Field{
		model.FieldTitle,
		model.FieldLinkedInURL,
		model.FieldCompanyDomain,
		model.FieldEmail,
		model.FieldCompanyDescription,
	}, c.EnrichedFields)
}

func TestEnrich_StagesSeeEarlierResults(t *testing.T) {
	f := newFakes()
	o := newTestOrchestrator(f.registry())

	_, err := o.Enrich(context.Background(), janeDoe())
	require.NoError(t, err)

	require.Equal(t, 1, f.email.calls())
	assert.Equal(t, "acme.com", f.email.seen[0].CompanyDomain)
	require.Equal(t, 1, f.description.calls())
	assert.Equal(t, "jane@acme.com", f.description.seen[0].Email)
}

func TestEnrich_CompleteContact(t *testing.T) {
	f := newFakes()
	o := newTestOrchestrator(f.registry())

	out, err := o.Enrich(context.Background(), completeContact())
	require.NoError(t, err)
	assert.Equal(t, model.StatusEnriched, out.Contact.Status)
	assert.Equal(t, 0.0, out.Contact.Cost)
	assert.Empty(t, out.Invoked)
	assert.Equal(t, 0, f.total())
}

func TestEnrich_FirstWriteWins(t *testing.T) {
	f := newFakes()
	o := newTestOrchestrator(f.registry())

	in := janeDoe()
	in.Title = "Chief Rocket Officer"
	in.Email = "jd@personal.example"

	out, err := o.Enrich(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Chief Rocket Officer", out.Contact.Title)
	assert.Equal(t, "jd@personal.example", out.Contact.Email)
	assert.Equal(t, "Acme", out.Contact.CompanyName)
	assert.NotContains(t, out.Contact.EnrichedFields, model.FieldTitle)
	assert.Equal(t, 0, f.email.calls(), "email already present")
}

func TestEnrich_DoesNotModifyInput(t *testing.T) {
	f := newFakes()
	o := newTestOrchestrator(f.registry())

	in := janeDoe()
	_, err := o.Enrich(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, in.Status)
	assert.Empty(t, in.Email)
	assert.Equal(t, 0.0, in.Cost)
	assert.Empty(t, in.EnrichedFields)
}

func TestEnrich_ProfileFillsGaps(t *testing.T) {
	f := newFakes()
	f.identity.fields = model.Partial{model.FieldCompanyName: "Acme"}
	f.profile.fields = model.Partial{
		model.FieldTitle:       "Head of Sales",
		model.FieldLinkedInURL: "https://www.linkedin.com/in/jane-d",
	}
	o := newTestOrchestrator(f.registry())

	out, err := o.Enrich(context.Background(), janeDoe())
	require.NoError(t, err)
	assert.Equal(t, 1, f.profile.calls())
	assert.Equal(t, "Head of Sales", out.Contact.Title)
	assert.Equal(t, "https://www.linkedin.com/in/jane-d", out.Contact.LinkedInURL)
	assert.Equal(t, []cost.API{cost.SerpAPI, cost.SerpAPIDomain, cost.ScrapinIO, cost.AnymailFinder, cost.ScrapeOwl}, out.Invoked)
	assert.InDelta(t, cost.DefaultRates().MaxPerContact(), out.Contact.Cost, 1e-9)
}

func TestEnrich_SoftFailureStillCharged(t *testing.T) {
	f := newFakes()
	f.identity.fields = nil
	f.domain.fields = nil
	f.profile.fields = nil
	o := newTestOrchestrator(f.registry())

	out, err := o.Enrich(context.Background(), janeDoe())
	require.NoError(t, err)

	// No domain was found, but the company name still opens the guard.
	assert.Equal(t, []cost.API{cost.SerpAPI, cost.SerpAPIDomain, cost.ScrapinIO, cost.AnymailFinder, cost.ScrapeOwl}, out.Invoked)
	assert.Equal(t, model.StatusInProgress, out.Contact.Status)
	assert.Equal(t, "jane@acme.com", out.Contact.Email)
}

func TestEnrich_PreconditionMissIsFree(t *testing.T) {
	f := newFakes()
	f.domain.fields = nil
	f.email.skip = true
	f.description.skip = true
	o := newTestOrchestrator(f.registry())

	out, err := o.Enrich(context.Background(), janeDoe())
	require.NoError(t, err)
	assert.Equal(t, 1, f.email.calls())
	assert.Equal(t, []cost.API{cost.SerpAPI, cost.SerpAPIDomain}, out.Invoked)
	assert.InDelta(t, 0.02, out.Contact.Cost, 1e-9)
	assert.Equal(t, model.StatusInProgress, out.Contact.Status)
}

func TestEnrich_GuardWithoutCompany(t *testing.T) {
	f := newFakes()
	f.identity.fields = model.Partial{model.FieldLinkedInURL: "https://www.linkedin.com/in/janedoe"}
	f.profile.fields = nil
	o := newTestOrchestrator(f.registry())

	in := model.NewContact("solo")
	in.FirstName = "Jane"
	in.LastName = "Doe"

	out, err := o.Enrich(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 0, f.domain.calls(), "no company name to resolve")
	assert.Equal(t, 0, f.email.calls())
	assert.Equal(t, 0, f.description.calls())
	assert.Equal(t, []cost.API{cost.SerpAPI, cost.ScrapinIO}, out.Invoked)
	assert.Equal(t, model.StatusInProgress, out.Contact.Status)
}

func TestEnrich_DomainLookupFollowsIdentitySearch(t *testing.T) {
	f := newFakes()
	o := newTestOrchestrator(f.registry())
	calc := cost.NewCalculator(cost.DefaultRates())

	in := completeContact()
	in.CompanyDomain = ""
	in.Title = "VP Sales"

	plan := Decide(in)
	require.Empty(t, plan)

	out, err := o.Enrich(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 0, f.domain.calls(), "no identity search planned")
	assert.Empty(t, out.Invoked)
	assert.Equal(t, 0.0, out.Contact.Cost)
	assert.LessOrEqual(t, out.Contact.Cost, WorstCase(in, plan, calc))
	assert.Empty(t, out.Contact.CompanyDomain)
}

func TestEnrich_GuardWithoutName(t *testing.T) {
	f := newFakes()
	o := newTestOrchestrator(f.registry())

	in := model.NewContact("nameless")
	in.CompanyName = "Acme"

	out, err := o.Enrich(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 0, f.email.calls())
	assert.Equal(t, 0, f.description.calls())
	assert.Equal(t, model.StatusInProgress, out.Contact.Status)
}

func TestEnrich_ConfigErrorStopsPass(t *testing.T) {
	f := newFakes()
	f.email.err = &provider.ConfigError{API: cost.AnymailFinder, Key: "anymailfinder.key"}
	o := newTestOrchestrator(f.registry())

	out, err := o.Enrich(context.Background(), janeDoe())
	require.Error(t, err)
	assert.True(t, provider.IsConfigError(err))

	require.NotNil(t, out)
	assert.Equal(t, model.StatusError, out.Contact.Status)
	assert.Contains(t, out.Contact.Error, "anymailfinder.key")
	assert.InDelta(t, 0.02, out.Contact.Cost, 1e-9, "cost accrued before the failure is kept")
	assert.Equal(t, []cost.API{cost.SerpAPI, cost.SerpAPIDomain}, out.Invoked)
	assert.Equal(t, 0, f.description.calls())
}

func TestEnrich_UnregisteredProviderSkipped(t *testing.T) {
	f := newFakes()
	o := newTestOrchestrator(provider.NewRegistry(f.identity, f.domain, f.email))

	out, err := o.Enrich(context.Background(), janeDoe())
	require.NoError(t, err)
	assert.Equal(t, []cost.API{cost.SerpAPI, cost.SerpAPIDomain, cost.AnymailFinder}, out.Invoked)
	assert.Empty(t, out.Contact.CompanyDescription)
	assert.Equal(t, model.StatusInProgress, out.Contact.Status)
}

func TestEnrich_CancelledContext(t *testing.T) {
	f := newFakes()
	o := newTestOrchestrator(f.registry())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := o.Enrich(ctx, janeDoe())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.StatusError, out.Contact.Status)
	assert.Equal(t, 0.0, out.Contact.Cost)
	assert.Equal(t, 0, f.total())
}

func TestEnrich_TerminalStatusRejected(t *testing.T) {
	o := newTestOrchestrator(newFakes().registry())

	in := completeContact()
	in.Status = model.StatusEnriched

	_, err := o.Enrich(context.Background(), in)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestEnrich_CostMatchesInvoked(t *testing.T) {
	calc := cost.NewCalculator(cost.DefaultRates())
	inputs := []model.Contact{janeDoe(), completeContact(), model.NewContact("empty")}

	in := model.NewContact("first-last")
	in.FirstName = "Jane"
	in.LastName = "Doe"
	in.CompanyDomain = "acme.com"
	inputs = append(inputs, in)

	for _, c := range inputs {
		t.Run(c.ID, func(t *testing.T) {
			o := newTestOrchestrator(newFakes().registry())
			out, err := o.Enrich(context.Background(), c)
			require.NoError(t, err)
			assert.InDelta(t, calc.Total(out.Invoked), out.Contact.Cost, 1e-9)
			assert.LessOrEqual(t, out.Contact.Cost, cost.DefaultRates().MaxPerContact()+1e-9)
		})
	}
}

func TestEnrich_RecordsMetrics(t *testing.T) {
	m := metrics.NewManager()
	o := newTestOrchestrator(newFakes().registry(), WithMetrics(m))

	_, err := o.Enrich(context.Background(), janeDoe())
	require.NoError(t, err)

	calls, err := testutil.GatherAndCount(m.Registry(), "enricher_provider_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 4, calls)

	contacts, err := testutil.GatherAndCount(m.Registry(), "enricher_contacts_total")
	require.NoError(t, err)
	assert.Equal(t, 1, contacts)
}
