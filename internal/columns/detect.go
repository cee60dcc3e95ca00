// Package columns infers which input columns hold the company URL and
// optional metadata from the table's header names.
package columns

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/leadflow/internal/model"
)

// companyURLPatterns test a normalized header for the company LinkedIn
// URL role, ordered most to least specific. For each pattern, headers
// are scanned in input order and the first match wins.
var companyURLPatterns = []func(h string) bool{
	func(h string) bool {
		return strings.Contains(h, "linkedin") &&
			(strings.Contains(h, "company") || strings.Contains(h, "organization") || strings.Contains(h, "account"))
	},
	func(h string) bool {
		return strings.Contains(h, "linkedin") &&
			(strings.Contains(h, "url") || strings.Contains(h, "link") || strings.Contains(h, "profile"))
	},
	func(h string) bool { return strings.Contains(h, "linkedin") },
	func(h string) bool { return h == "url" },
}

// optionalPatterns map each optional role to its ordered header tests.
var optionalPatterns = map[string][]func(h string) bool{
	"name": {
		func(h string) bool { return strings.Contains(h, "company") && strings.Contains(h, "name") },
		func(h string) bool { return h == "company" || h == "name" || h == "account" },
	},
	"domain": {
		func(h string) bool { return strings.Contains(h, "domain") },
		func(h string) bool { return strings.Contains(h, "website") },
	},
	"location": {
		func(h string) bool { return strings.Contains(h, "location") },
		func(h string) bool { return strings.Contains(h, "headquarters") || h == "hq" },
		func(h string) bool { return h == "city" || h == "country" },
	},
	"size": {
		func(h string) bool { return strings.Contains(h, "size") || strings.Contains(h, "headcount") },
		func(h string) bool { return strings.Contains(h, "employees") },
	},
}

// normalize case-folds a header and collapses separators to spaces so
// "Company_LinkedIn-URL" and "company linkedin url" compare equal.
// Folding rather than lowercasing keeps matching correct for non-ASCII
// headers; a Caser is stateful, so one is built per call.
func normalize(header string) string {
	var b strings.Builder
	for _, r := range cases.Fold().String(strings.TrimSpace(header)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// firstMatch returns the first header, in input order, matched by any of
// the ordered patterns (patterns are tried in order, headers per pattern).
func firstMatch(headers []string, patterns []func(h string) bool) string {
	for _, p := range patterns {
		for _, h := range headers {
			if p(normalize(h)) {
				return h
			}
		}
	}
	return ""
}

// contains reports whether header appears in headers verbatim.
func contains(headers []string, header string) bool {
	for _, h := range headers {
		if h == header {
			return true
		}
	}
	return false
}

// Detect infers the column mapping from the table's header names. The
// company-URL column is mandatory; the optional roles are best-effort
// and left empty when no header matches.
func Detect(headers []string) (model.ColumnMapping, error) {
	return Resolve(headers, model.ColumnMapping{})
}

// Resolve is Detect with a caller-supplied override: non-empty override
// fields naming an existing header pre-empt detection for that role.
func Resolve(headers []string, override model.ColumnMapping) (model.ColumnMapping, error) {
	m := model.ColumnMapping{}

	if override.CompanyURL != "" && contains(headers, override.CompanyURL) {
		m.CompanyURL = override.CompanyURL
	} else {
		m.CompanyURL = firstMatch(headers, companyURLPatterns)
	}
	if m.CompanyURL == "" {
		return model.ColumnMapping{}, eris.New("columns: no company LinkedIn URL column found in header")
	}

	resolve := func(role, ov string) string {
		if ov != "" && contains(headers, ov) {
			return ov
		}
		return firstMatch(headers, optionalPatterns[role])
	}
	m.Name = resolve("name", override.Name)
	m.Domain = resolve("domain", override.Domain)
	m.Location = resolve("location", override.Location)
	m.Size = resolve("size", override.Size)

	return m, nil
}
