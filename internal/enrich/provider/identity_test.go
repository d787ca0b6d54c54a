package provider

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/person-enricher/internal/model"
	"github.com/sells-group/person-enricher/pkg/serpapi"
)

func TestParseProfileTitle(t *testing.T) {
	tests := []struct {
		raw         string
		wantTitle   string
		wantCompany string
	}{
		{"Jane Doe - VP Sales - Acme | LinkedIn", "VP Sales", "Acme"},
		{"Jane Doe - VP Sales - Acme", "VP Sales", "Acme"},
		{"Jane Doe - Head - Growth - Acme | LinkedIn", "Head - Growth", "Acme"},
		{"Jane Doe - Acme | LinkedIn", "", "Acme"},
		{"Jane Doe | LinkedIn", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			title, company := ParseProfileTitle(tt.raw)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantCompany, company)
		})
	}
}

func TestIdentityQuery(t *testing.T) {
	c := model.NewContact("c1")
	c.FirstName = "Jane"
	c.LastName = "Doe"
	assert.Equal(t, "Jane Doe site:linkedin.com/in", IdentityQuery(c))

	c.CompanyName = "  Acme  Corp "
	assert.Equal(t, "Jane Doe Acme Corp site:linkedin.com/in", IdentityQuery(c))
}

func TestIdentitySearch_Attempt(t *testing.T) {
	c := model.NewContact("c1")
	c.FullName = "Jane Doe"

	m := &mockSerpClient{}
	m.On("Search", mock.Anything, "Jane Doe site:linkedin.com/in").Return(&serpapi.SearchResponse{
		OrganicResults: []serpapi.OrganicResult{
			{Title: "Jane Doe - Crunchbase", Link: "https://crunchbase.com/person/jane"},
			{Title: "Jane Doe - VP Sales - Acme | LinkedIn", Link: "https://www.linkedin.com/in/janedoe"},
			{Title: "Jane Doe - CEO - Other | LinkedIn", Link: "https://www.linkedin.com/in/janedoe2"},
		},
	}, nil)

	res, err := NewIdentitySearch(m).Attempt(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, res.Called)
	assert.Equal(t, model.Partial{
		model.FieldLinkedInURL: "https://www.linkedin.com/in/janedoe",
		model.FieldTitle:       "VP Sales",
		model.FieldCompanyName: "Acme",
	}, res.Fields)
	m.AssertExpectations(t)
}

func TestIdentitySearch_NoProfile(t *testing.T) {
	c := model.NewContact("c1")
	c.FullName = "Jane Doe"

	m := &mockSerpClient{}
	m.On("Search", mock.Anything, mock.Anything).Return(&serpapi.SearchResponse{
		OrganicResults: []serpapi.OrganicResult{{Title: "Jane", Link: "https://example.com"}},
	}, nil)

	res, err := NewIdentitySearch(m).Attempt(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, res.Called)
	assert.Empty(t, res.Fields)
}

func TestIdentitySearch_TransportErrorIsSoft(t *testing.T) {
	c := model.NewContact("c1")
	c.FullName = "Jane Doe"

	m := &mockSerpClient{}
	m.On("Search", mock.Anything, mock.Anything).Return(nil, eris.New("serpapi: unexpected status 500"))

	res, err := NewIdentitySearch(m).Attempt(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, res.Called)
	assert.Empty(t, res.Fields)
}

func TestIdentitySearch_NoNameSkips(t *testing.T) {
	c := model.NewContact("c1")
	c.FirstName = "Jane"

	m := &mockSerpClient{}
	res, err := NewIdentitySearch(m).Attempt(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, res.Called)
	assert.Empty(t, res.Fields)
	m.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestCleanCompanyName(t *testing.T) {
	assert.Equal(t, "Acme Inc", CleanCompanyName("Acme (US) Inc"))
	assert.Equal(t, "Acme", CleanCompanyName("  Acme (formerly Foo)  "))
	assert.Equal(t, "", CleanCompanyName("(stealth)"))
}

func TestHostname(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.acme.com/", "acme.com"},
		{"http://Acme.com/about?x=1", "acme.com"},
		{"acme.com", "acme.com"},
		{"www.acme.co.uk/path", "acme.co.uk"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Hostname(tt.raw))
		})
	}
}

func TestDomainResolver_KnowledgeGraph(t *testing.T) {
	c := model.NewContact("c1")
	c.CompanyName = "Acme (US)"

	m := &mockSerpClient{}
	m.On("Search", mock.Anything, "Acme official website").Return(&serpapi.SearchResponse{
		OrganicResults: []serpapi.OrganicResult{{Link: "https://en.wikipedia.org/wiki/Acme"}},
		KnowledgeGraph: &serpapi.KnowledgeGraph{Website: "https://www.acme.com/"},
	}, nil)

	res, err := NewDomainResolver(m).Attempt(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, res.Called)
	assert.Equal(t, "acme.com", res.Fields[model.FieldCompanyDomain])
	m.AssertExpectations(t)
}

func TestDomainResolver_FirstOrganic(t *testing.T) {
	c := model.NewContact("c1")
	c.CompanyName = "Acme"

	m := &mockSerpClient{}
	m.On("Search", mock.Anything, mock.Anything).Return(&serpapi.SearchResponse{
		OrganicResults: []serpapi.OrganicResult{{Link: "https://www.acme.io/home"}},
	}, nil)

	res, err := NewDomainResolver(m).Attempt(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "acme.io", res.Fields[model.FieldCompanyDomain])
}

func TestDomainResolver_NothingFound(t *testing.T) {
	c := model.NewContact("c1")
	c.CompanyName = "Acme"

	m := &mockSerpClient{}
	m.On("Search", mock.Anything, mock.Anything).Return(&serpapi.SearchResponse{}, nil)

	res, err := NewDomainResolver(m).Attempt(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, res.Called)
	assert.Empty(t, res.Fields)
}

func TestDomainResolver_NoCompanySkips(t *testing.T) {
	m := &mockSerpClient{}
	res, err := NewDomainResolver(m).Attempt(context.Background(), model.NewContact("c1"))
	require.NoError(t, err)
	assert.False(t, res.Called)
	m.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}
