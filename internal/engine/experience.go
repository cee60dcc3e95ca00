package engine

import (
	"strings"

	"github.com/sells-group/leadflow/pkg/prospeo"
)

// companySlug extracts the path segment following "/company/" from a
// LinkedIn company URL, e.g. "acme" from
// "https://www.linkedin.com/company/acme/about/".
func companySlug(companyURL string) string {
	const marker = "/company/"
	idx := strings.Index(companyURL, marker)
	if idx < 0 {
		return ""
	}
	rest := companyURL[idx+len(marker):]
	if cut := strings.IndexAny(rest, "/?#"); cut >= 0 {
		rest = rest[:cut]
	}
	return strings.ToLower(strings.TrimSpace(rest))
}

// relevantExperience selects the work-history entry relevant to the
// company being processed: the current entry whose company identifier
// contains the target's slug, else any current entry, else the first
// entry, else a zero placeholder.
func relevantExperience(emp prospeo.Employee, companyURL string) prospeo.Experience {
	slug := companySlug(companyURL)

	if slug != "" {
		for _, exp := range emp.Experiences {
			if exp.IsCurrent && strings.Contains(strings.ToLower(exp.CompanyURL), slug) {
				return exp
			}
		}
	}
	for _, exp := range emp.Experiences {
		if exp.IsCurrent {
			return exp
		}
	}
	if len(emp.Experiences) > 0 {
		return emp.Experiences[0]
	}
	return prospeo.Experience{}
}

// displayTitle is the job title shown in output: the resolved entry's
// title, falling back to the employee headline.
func displayTitle(exp prospeo.Experience, emp prospeo.Employee) string {
	if exp.Title != "" {
		return exp.Title
	}
	return emp.Headline
}
