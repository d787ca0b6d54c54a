package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/person-enricher/internal/cost"
	"github.com/sells-group/person-enricher/internal/enrich"
	"github.com/sells-group/person-enricher/internal/model"
)

var (
	planCSV         string
	planLimit       int
	planCharset     string
	planPricingFile string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show which APIs each contact would need, without calling them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("plan"); err != nil {
			return err
		}

		contacts, err := loadContacts(planCSV, planCharset, ",", planLimit)
		if err != nil {
			return err
		}

		rates := cfg.Pricing
		if planPricingFile != "" {
			if rates, err = cost.LoadRates(planPricingFile); err != nil {
				return err
			}
		}
		return writePlan(cmd.OutOrStdout(), contacts, cost.NewCalculator(rates))
	},
}

func init() {
	planCmd.Flags().StringVar(&planCSV, "csv", "", "path to the contacts CSV or XLSX file (required)")
	planCmd.Flags().IntVar(&planLimit, "limit", 0, "max contacts to plan (0 = all)")
	planCmd.Flags().StringVar(&planCharset, "charset", "", "input encoding (default utf-8)")
	planCmd.Flags().StringVar(&planPricingFile, "pricing-file", "", "YAML file overriding per-call prices")
	_ = planCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(planCmd)
}

// contactPlan is one line of the plan report.
type contactPlan struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Missing   []string   `json:"missing"`
	APIs      []cost.API `json:"apis"`
	WorstCase float64    `json:"worst_case_cost"`
}

// planReport is the full plan output.
type planReport struct {
	Contacts  []contactPlan `json:"contacts"`
	Calls     int           `json:"calls"`
	WorstCase float64       `json:"worst_case_cost"`
}

func writePlan(w io.Writer, contacts []model.Contact, calc *cost.Calculator) error {
	report := planReport{Contacts: make([]contactPlan, 0, len(contacts))}
	for _, c := range contacts {
		apis := enrich.Decide(c)
		if apis == nil {
			apis = []cost.API{}
		}
		missing := make([]string, 0)
		for _, f := range c.Missing() {
			missing = append(missing, string(f))
		}
		wc := enrich.WorstCase(c, apis, calc)
		report.Contacts = append(report.Contacts, contactPlan{
			ID:        c.ID,
			Name:      c.DisplayName(),
			Missing:   missing,
			APIs:      apis,
			WorstCase: wc,
		})
		report.Calls += len(apis)
		report.WorstCase += wc
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
