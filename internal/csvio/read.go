// Package csvio reads contact spreadsheets and writes enriched exports.
package csvio

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/person-enricher/internal/enrich/provider"
	"github.com/sells-group/person-enricher/internal/model"
)

// ReadOptions configures contact ingestion.
type ReadOptions struct {
	// Charset names the input encoding (e.g. "windows-1252"). Empty means UTF-8.
	Charset string
	// Delimiter defaults to ','.
	Delimiter rune
	// SheetIndex selects the worksheet for XLSX input.
	SheetIndex int
}

// headerAliases maps normalised header names to contact fields.
var headerAliases = map[string]model.Field{
	"full_name":           model.FieldFullName,
	"fullname":            model.FieldFullName,
	"name":                model.FieldFullName,
	"first_name":          model.FieldFirstName,
	"firstname":           model.FieldFirstName,
	"first":               model.FieldFirstName,
	"given_name":          model.FieldFirstName,
	"last_name":           model.FieldLastName,
	"lastname":            model.FieldLastName,
	"last":                model.FieldLastName,
	"surname":             model.FieldLastName,
	"family_name":         model.FieldLastName,
	"title":               model.FieldTitle,
	"job_title":           model.FieldTitle,
	"position":            model.FieldTitle,
	"role":                model.FieldTitle,
	"email":               model.FieldEmail,
	"email_address":       model.FieldEmail,
	"e_mail":              model.FieldEmail,
	"work_email":          model.FieldEmail,
	"linkedin_url":        model.FieldLinkedInURL,
	"linkedin":            model.FieldLinkedInURL,
	"linkedin_profile":    model.FieldLinkedInURL,
	"linkedinurl":         model.FieldLinkedInURL,
	"company_name":        model.FieldCompanyName,
	"company":             model.FieldCompanyName,
	"organization":        model.FieldCompanyName,
	"employer":            model.FieldCompanyName,
	"company_domain":      model.FieldCompanyDomain,
	"domain":              model.FieldCompanyDomain,
	"website":             model.FieldCompanyDomain,
	"company_website":     model.FieldCompanyDomain,
	"company_url":         model.FieldCompanyDomain,
	"company_description": model.FieldCompanyDescription,
	"description":         model.FieldCompanyDescription,
	"about":               model.FieldCompanyDescription,
}

var headerReplacer = strings.NewReplacer(" ", "_", "-", "_", ".", "_")

// NormalizeHeader case-folds a header cell and turns separators into underscores.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = cases.Fold().String(strings.TrimSpace(h))
	h = headerReplacer.Replace(h)
	for strings.Contains(h, "__") {
		h = strings.ReplaceAll(h, "__", "_")
	}
	return strings.Trim(h, "_")
}

// ReadContacts parses a CSV of contacts. Headers are matched case-insensitively
// with aliases; unknown columns are ignored and rows without any name are
// dropped. Every contact gets a fresh ID and starts pending.
func ReadContacts(r io.Reader, opts ReadOptions) ([]model.Contact, error) {
	if opts.Charset != "" {
		enc, err := htmlindex.Get(opts.Charset)
		if err != nil {
			return nil, eris.Wrapf(err, "csvio: unsupported charset %q", opts.Charset)
		}
		r = enc.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csvio: read csv")
	}
	return parseRecords(records)
}

// ReadContactsXLSX parses contacts from a worksheet with the same header rules
// as ReadContacts.
func ReadContactsXLSX(path string, opts ReadOptions) ([]model.Contact, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "csvio: open xlsx")
	}
	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("csvio: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	sheet := f.Sheets[opts.SheetIndex]
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			if cell != nil {
				cells[i] = cell.String()
			}
		}
		records = append(records, cells)
	}
	return parseRecords(records)
}

func parseRecords(records [][]string) ([]model.Contact, error) {
	if len(records) == 0 {
		return nil, eris.New("csvio: empty input")
	}

	columns := make(map[model.Field]int)
	for i, h := range records[0] {
		f, ok := headerAliases[NormalizeHeader(h)]
		if !ok {
			continue
		}
		if _, dup := columns[f]; !dup {
			columns[f] = i
		}
	}

	_, hasFull := columns[model.FieldFullName]
	_, hasFirst := columns[model.FieldFirstName]
	_, hasLast := columns[model.FieldLastName]
	if !hasFull && !hasFirst && !hasLast {
		return nil, eris.New("csvio: no name column in header")
	}

	contacts := make([]model.Contact, 0, len(records)-1)
	dropped := 0
	for _, row := range records[1:] {
		c := model.NewContact(uuid.NewString())
		for f, i := range columns {
			if i >= len(row) {
				continue
			}
			v := row[i]
			// Domains that do not parse as a host are kept as typed.
			if f == model.FieldCompanyDomain {
				if host := provider.Hostname(v); host != "" {
					v = host
				}
			}
			c.Set(f, v)
		}
		if !c.HasAnyName() {
			dropped++
			continue
		}
		contacts = append(contacts, c)
	}

	if dropped > 0 {
		zap.L().Debug("csvio: dropped rows without a name", zap.Int("rows", dropped))
	}
	return contacts, nil
}
