package tabular

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadflow/internal/model"
)

// WriteXLSX writes the result table as a single-sheet workbook with the
// same fixed schema as WriteCSV.
func WriteXLSX(w io.Writer, rows []model.ResultRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Results")
	if err != nil {
		return eris.Wrap(err, "tabular: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, h := range resultHeaders {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range resultRecord(r) {
			row.AddCell().SetString(v)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "tabular: write xlsx")
	}
	return nil
}
