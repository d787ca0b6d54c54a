// Package cost holds the flat per-call price table for enrichment providers.
package cost

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// API identifies a billable provider call.
type API string

const (
	SerpAPI       API = "SerpAPI"
	SerpAPIDomain API = "SerpAPIDomain" // domain resolver, billed as a SerpAPI search
	ScrapinIO     API = "ScrapinIO"
	AnymailFinder API = "AnymailFinder"
	ScrapeOwl     API = "ScrapeOwl"
)

// APIs lists every billable API in dependency order.
var APIs = []API{SerpAPI, SerpAPIDomain, ScrapinIO, AnymailFinder, ScrapeOwl}

// Rates holds the flat USD price of a single call per provider.
type Rates struct {
	SerpAPI       float64 `yaml:"serpapi" mapstructure:"serpapi"`
	ScrapinIO     float64 `yaml:"scrapin" mapstructure:"scrapin"`
	AnymailFinder float64 `yaml:"anymailfinder" mapstructure:"anymailfinder"`
	ScrapeOwl     float64 `yaml:"scrapeowl" mapstructure:"scrapeowl"`
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		SerpAPI:       0.01,
		ScrapinIO:     0.025,
		AnymailFinder: 0.05,
		ScrapeOwl:     0.14,
	}
}

// MaxPerContact is the most a single enrichment pass can spend:
// every API, including the secondary domain lookup, called once.
func (r Rates) MaxPerContact() float64 {
	c := NewCalculator(r)
	total := 0.0
	for _, api := range APIs {
		total += c.Price(api)
	}
	return total
}

// LoadRates reads a YAML price file. The file has a top-level "pricing" key;
// prices that are absent or zero keep their default.
func LoadRates(path string) (Rates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rates{}, eris.Wrapf(err, "cost: read rates %s", path)
	}

	var wrapper struct {
		Pricing Rates `yaml:"pricing"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Rates{}, eris.Wrap(err, "cost: parse rates")
	}

	return wrapper.Pricing.withDefaults(), nil
}

func (r Rates) withDefaults() Rates {
	d := DefaultRates()
	if r.SerpAPI <= 0 {
		r.SerpAPI = d.SerpAPI
	}
	if r.ScrapinIO <= 0 {
		r.ScrapinIO = d.ScrapinIO
	}
	if r.AnymailFinder <= 0 {
		r.AnymailFinder = d.AnymailFinder
	}
	if r.ScrapeOwl <= 0 {
		r.ScrapeOwl = d.ScrapeOwl
	}
	return r
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Rates returns the table the calculator was built with.
func (c *Calculator) Rates() Rates {
	return c.rates
}

// Price returns the flat price of one call to api, or 0 if unknown.
func (c *Calculator) Price(api API) float64 {
	switch api {
	case SerpAPI, SerpAPIDomain:
		return c.rates.SerpAPI
	case ScrapinIO:
		return c.rates.ScrapinIO
	case AnymailFinder:
		return c.rates.AnymailFinder
	case ScrapeOwl:
		return c.rates.ScrapeOwl
	default:
		return 0
	}
}

// Total sums the price of every call in apis.
func (c *Calculator) Total(apis []API) float64 {
	total := 0.0
	for _, api := range apis {
		total += c.Price(api)
	}
	return total
}
