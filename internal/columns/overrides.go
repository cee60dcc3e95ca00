package columns

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadflow/internal/model"
)

// LoadOverrides reads a YAML role→header mapping that pre-empts
// detection for the roles it names, e.g.:
//
//	company_url: "Org LinkedIn"
//	size: "FTE Count"
func LoadOverrides(path string) (model.ColumnMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ColumnMapping{}, eris.Wrap(err, "columns: read overrides file")
	}

	var m model.ColumnMapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return model.ColumnMapping{}, eris.Wrap(err, "columns: parse overrides file")
	}
	return m, nil
}
