// Package tabular reads the input company table and writes the result
// table in CSV or XLSX form.
package tabular

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow/internal/model"
)

// Table is a parsed input table: a shared header set and ordered rows
// keyed by column name.
type Table struct {
	Headers []string
	Rows    []model.Row
}

// ParseCSV reads the submitted company table. Ragged rows are padded
// with empty values; a table without data rows is a submission error.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "tabular: read csv")
	}
	if len(records) < 2 {
		return nil, eris.New("tabular: csv has no data rows")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]model.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(model.Row, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// resultHeaders is the fixed output schema: company metadata as
// supplied, then employee identity and enrichment outcomes. Missing
// values are empty cells, never absent columns.
var resultHeaders = []string{
	"Company Name",
	"Company LinkedIn URL",
	"Company Domain",
	"Company Location",
	"Company Size",
	"Full Name",
	"Title",
	"Location",
	"Profile URL",
	"Email",
	"Email Status",
	"Phone",
}

func resultRecord(r model.ResultRow) []string {
	return []string{
		r.CompanyName,
		r.CompanyURL,
		r.CompanyDomain,
		r.CompanyLocation,
		r.CompanySize,
		r.FullName,
		r.Title,
		r.Location,
		r.ProfileURL,
		r.Email,
		r.EmailStatus,
		r.Phone,
	}
}

// WriteCSV writes the result table.
func WriteCSV(w io.Writer, rows []model.ResultRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(resultHeaders); err != nil {
		return eris.Wrap(err, "tabular: write csv header")
	}
	for _, r := range rows {
		if err := writer.Write(resultRecord(r)); err != nil {
			return eris.Wrap(err, "tabular: write csv row")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return eris.Wrap(err, "tabular: flush csv")
	}
	return nil
}
