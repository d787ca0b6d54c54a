package csvio

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/person-enricher/internal/model"
)

// DefaultOutput is the export file name used when none is given.
const DefaultOutput = "enriched-contacts.csv"

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", eris.Errorf("csvio: unknown format %q", s)
	}
}

func header() []string {
	out := make([]string, len(model.Fields))
	for i, f := range model.Fields {
		out[i] = string(f)
	}
	return out
}

func row(c model.Contact) []string {
	out := make([]string, len(model.Fields))
	for i, f := range model.Fields {
		out[i] = c.Get(f)
	}
	return out
}

// WriteCSV writes one row per contact with the informational columns only.
func WriteCSV(w io.Writer, contacts []model.Contact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header()); err != nil {
		return eris.Wrap(err, "csvio: write header")
	}
	for _, c := range contacts {
		if err := cw.Write(row(c)); err != nil {
			return eris.Wrapf(err, "csvio: write contact %s", c.ID)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "csvio: flush csv")
}

// WriteXLSX saves the same columns as WriteCSV to an XLSX workbook.
func WriteXLSX(path string, contacts []model.Contact) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Contacts")
	if err != nil {
		return eris.Wrap(err, "csvio: add sheet")
	}

	addRow := func(cells []string) {
		r := sheet.AddRow()
		for _, v := range cells {
			r.AddCell().SetString(v)
		}
	}
	addRow(header())
	for _, c := range contacts {
		addRow(row(c))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "csvio: save xlsx %s", path)
	}
	return nil
}

// WriteJSON writes the full contact records, including status and cost.
func WriteJSON(w io.Writer, contacts []model.Contact) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(contacts); err != nil {
		return eris.Wrap(err, "csvio: encode json")
	}
	return nil
}

// Export writes contacts to path in the given format.
func Export(path string, format Format, contacts []model.Contact) error {
	if format == FormatXLSX {
		return WriteXLSX(path, contacts)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "csvio: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	switch format {
	case FormatJSON:
		err = WriteJSON(f, contacts)
	default:
		err = WriteCSV(f, contacts)
	}
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Close(), "csvio: close %s", path)
}
