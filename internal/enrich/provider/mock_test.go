package provider

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/person-enricher/pkg/anymailfinder"
	"github.com/sells-group/person-enricher/pkg/scrapeowl"
	"github.com/sells-group/person-enricher/pkg/scrapin"
	"github.com/sells-group/person-enricher/pkg/serpapi"
)

// --- SerpAPI Mock ---

type mockSerpClient struct {
	mock.Mock
}

func (m *mockSerpClient) Search(ctx context.Context, query string) (*serpapi.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*serpapi.SearchResponse), args.Error(1)
}

// --- Scrapin Mock ---

type mockScrapinClient struct {
	mock.Mock
}

func (m *mockScrapinClient) SearchPerson(ctx context.Context, req scrapin.PersonSearchRequest) (*scrapin.PersonSearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scrapin.PersonSearchResponse), args.Error(1)
}

// --- AnymailFinder Mock ---

type mockAnymailClient struct {
	mock.Mock
}

func (m *mockAnymailClient) FindPerson(ctx context.Context, req anymailfinder.PersonRequest) (*anymailfinder.PersonResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anymailfinder.PersonResponse), args.Error(1)
}

// --- ScrapeOwl Mock ---

type mockScrapeOwlClient struct {
	mock.Mock
}

func (m *mockScrapeOwlClient) Scrape(ctx context.Context, req scrapeowl.ScrapeRequest) (*scrapeowl.ScrapeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scrapeowl.ScrapeResponse), args.Error(1)
}
