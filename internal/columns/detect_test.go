package columns

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadflow/internal/model"
)

func TestDetect_CompanyLinkedInURL(t *testing.T) {
	t.Parallel()

	m, err := Detect([]string{"Company Name", "Company LinkedIn Url", "Location"})
	require.NoError(t, err)
	assert.Equal(t, "Company LinkedIn Url", m.CompanyURL)
	assert.Equal(t, "Company Name", m.Name)
	assert.Equal(t, "Location", m.Location)
	assert.Empty(t, m.Domain)
	assert.Empty(t, m.Size)
}

func TestDetect_MostSpecificPatternWins(t *testing.T) {
	t.Parallel()

	// "LinkedIn" alone matches a later pattern than "Company LinkedIn",
	// so the more specific header wins even though it appears second.
	m, err := Detect([]string{"LinkedIn", "Account LinkedIn URL"})
	require.NoError(t, err)
	assert.Equal(t, "Account LinkedIn URL", m.CompanyURL)
}

func TestDetect_HeaderOrderBreaksTies(t *testing.T) {
	t.Parallel()

	m, err := Detect([]string{"Company LinkedIn", "Organization LinkedIn"})
	require.NoError(t, err)
	assert.Equal(t, "Company LinkedIn", m.CompanyURL)
}

func TestDetect_BareLinkedInHeader(t *testing.T) {
	t.Parallel()

	m, err := Detect([]string{"Name", "linkedin"})
	require.NoError(t, err)
	assert.Equal(t, "linkedin", m.CompanyURL)
}

func TestDetect_BareURLLastResort(t *testing.T) {
	t.Parallel()

	m, err := Detect([]string{"Name", "URL"})
	require.NoError(t, err)
	assert.Equal(t, "URL", m.CompanyURL)
}

func TestDetect_SeparatorInsensitive(t *testing.T) {
	t.Parallel()

	m, err := Detect([]string{"company_linkedin-url"})
	require.NoError(t, err)
	assert.Equal(t, "company_linkedin-url", m.CompanyURL)
}

func TestDetect_NoURLColumnIsError(t *testing.T) {
	t.Parallel()

	_, err := Detect([]string{"Name", "Website", "City"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no company LinkedIn URL column")
}

func TestDetect_OptionalRoles(t *testing.T) {
	t.Parallel()

	m, err := Detect([]string{
		"Company Name",
		"Company LinkedIn Url",
		"Website",
		"Headquarters",
		"Employees on LinkedIn",
	})
	require.NoError(t, err)
	assert.Equal(t, "Company Name", m.Name)
	assert.Equal(t, "Website", m.Domain)
	assert.Equal(t, "Headquarters", m.Location)
	assert.Equal(t, "Employees on LinkedIn", m.Size)
}

func TestResolve_OverridePreemptsDetection(t *testing.T) {
	t.Parallel()

	headers := []string{"Org Page", "Company LinkedIn Url", "FTE Count"}
	m, err := Resolve(headers, model.ColumnMapping{
		CompanyURL: "Org Page",
		Size:       "FTE Count",
	})
	require.NoError(t, err)
	assert.Equal(t, "Org Page", m.CompanyURL)
	assert.Equal(t, "FTE Count", m.Size)
}

func TestResolve_OverrideMissingHeaderFallsBack(t *testing.T) {
	t.Parallel()

	headers := []string{"Company LinkedIn Url"}
	m, err := Resolve(headers, model.ColumnMapping{CompanyURL: "No Such Column"})
	require.NoError(t, err)
	assert.Equal(t, "Company LinkedIn Url", m.CompanyURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "columns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("company_url: \"Org LinkedIn\"\nsize: \"FTE Count\"\n"), 0o644))

	m, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "Org LinkedIn", m.CompanyURL)
	assert.Equal(t, "FTE Count", m.Size)
	assert.Empty(t, m.Name)
}

func TestLoadOverrides_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
