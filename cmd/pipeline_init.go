package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/person-enricher/internal/config"
	"github.com/sells-group/person-enricher/internal/cost"
	"github.com/sells-group/person-enricher/internal/enrich"
	"github.com/sells-group/person-enricher/internal/enrich/provider"
	"github.com/sells-group/person-enricher/internal/metrics"
	"github.com/sells-group/person-enricher/pkg/anymailfinder"
	"github.com/sells-group/person-enricher/pkg/scrapeowl"
	"github.com/sells-group/person-enricher/pkg/scrapin"
	"github.com/sells-group/person-enricher/pkg/serpapi"
)

// enricherEnv bundles the initialized enrichment components.
type enricherEnv struct {
	Orchestrator *enrich.Orchestrator
	Calculator   *cost.Calculator
	Metrics      *metrics.Manager
}

// initEnricher builds the provider registry and orchestrator from config.
// Providers without a key are still registered; they report a configuration
// error when a contact needs them. A non-empty pricingFile replaces the
// configured prices.
func initEnricher(c *config.Config, pricingFile string) (*enricherEnv, error) {
	rates := c.Pricing
	if pricingFile != "" {
		r, err := cost.LoadRates(pricingFile)
		if err != nil {
			return nil, err
		}
		rates = r
		zap.L().Info("loaded pricing file", zap.String("path", pricingFile))
	}
	calc := cost.NewCalculator(rates)

	hc := newHTTPClient(c.Enrich.TimeoutSecs)

	var serp serpapi.Client
	if c.SerpAPI.Configured() {
		serp = serpapi.NewClient(c.SerpAPI.Key, serpapi.WithBaseURL(c.SerpAPI.BaseURL), serpapi.WithHTTPClient(hc))
	}
	var scrapinClient scrapin.Client
	if c.Scrapin.Configured() {
		scrapinClient = scrapin.NewClient(c.Scrapin.Key, scrapin.WithBaseURL(c.Scrapin.BaseURL), scrapin.WithHTTPClient(hc))
	}
	var amf anymailfinder.Client
	if c.AnymailFinder.Configured() {
		amf = anymailfinder.NewClient(c.AnymailFinder.Key, anymailfinder.WithBaseURL(c.AnymailFinder.BaseURL), anymailfinder.WithHTTPClient(hc))
	}
	var owl scrapeowl.Client
	if c.ScrapeOwl.Configured() {
		owl = scrapeowl.NewClient(c.ScrapeOwl.Key, scrapeowl.WithBaseURL(c.ScrapeOwl.BaseURL), scrapeowl.WithHTTPClient(hc))
	}

	registry := provider.NewRegistry(
		provider.NewIdentitySearch(serp),
		provider.NewDomainResolver(serp),
		provider.NewProfileLookup(scrapinClient),
		provider.NewEmailFinder(amf),
		provider.NewDescriptionFinder(owl),
	)

	m := metrics.NewManager()
	return &enricherEnv{
		Orchestrator: enrich.NewOrchestrator(registry, calc, enrich.WithMetrics(m)),
		Calculator:   calc,
		Metrics:      m,
	}, nil
}

// newHTTPClient returns the client shared by every provider. Zero seconds
// sets no client timeout.
func newHTTPClient(timeoutSecs int) *http.Client {
	hc := &http.Client{}
	if timeoutSecs > 0 {
		hc.Timeout = time.Duration(timeoutSecs) * time.Second
	}
	return hc
}

// validateAPIKeys warns about providers that will fail for lack of a key.
func validateAPIKeys(c *config.Config) {
	for _, key := range c.MissingKeys() {
		zap.L().Warn("api key not set, contacts that need this provider will fail",
			zap.String("key", key),
		)
	}
}
