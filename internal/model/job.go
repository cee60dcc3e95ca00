package model

// Phase represents the coarse lifecycle stage of an enrichment job.
type Phase string

const (
	PhaseQueued    Phase = "queued"
	PhaseEnriching Phase = "enriching"
	PhaseDone      Phase = "done"
	PhaseError     Phase = "error"
)

// Terminal reports whether the phase admits no further transitions.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseError
}

// rank orders phases for forward-only transitions.
func (p Phase) rank() int {
	switch p {
	case PhaseQueued:
		return 0
	case PhaseEnriching:
		return 1
	case PhaseDone, PhaseError:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo reports whether a transition from p to next is allowed.
// Phases only move forward; terminal phases never transition.
func (p Phase) CanAdvanceTo(next Phase) bool {
	if p.Terminal() {
		return false
	}
	return next.rank() >= p.rank()
}

// Snapshot is the mutable status record of a job. Updates are deltas
// merged into the previous snapshot; fields not named by an update keep
// their prior value.
type Snapshot struct {
	Phase              Phase  `json:"phase"`
	CompanyCurrent     int    `json:"companyCurrent"`
	CompanyTotal       int    `json:"companyTotal"`
	CurrentCompanyName string `json:"currentCompanyName"`
	EmployeesFound     int    `json:"employeesFound"`
	EmailsFound        int    `json:"emailsFound"`
	PhonesFound        int    `json:"phonesFound"`
	Done               bool   `json:"done"`
	Error              string `json:"error,omitempty"`
}

// Delta names the snapshot fields an update wants to change. Nil fields
// are left untouched by the merge.
type Delta struct {
	Phase              *Phase
	CompanyCurrent     *int
	CompanyTotal       *int
	CurrentCompanyName *string
	EmployeesFound     *int
	EmailsFound        *int
	PhonesFound        *int
	Done               *bool
	Error              *string
}

// Apply merges d into s, honoring forward-only phase transitions.
func (s *Snapshot) Apply(d Delta) {
	if d.Phase != nil && s.Phase.CanAdvanceTo(*d.Phase) {
		s.Phase = *d.Phase
	}
	if d.CompanyCurrent != nil {
		s.CompanyCurrent = *d.CompanyCurrent
	}
	if d.CompanyTotal != nil {
		s.CompanyTotal = *d.CompanyTotal
	}
	if d.CurrentCompanyName != nil {
		s.CurrentCompanyName = *d.CurrentCompanyName
	}
	if d.EmployeesFound != nil {
		s.EmployeesFound = *d.EmployeesFound
	}
	if d.EmailsFound != nil {
		s.EmailsFound = *d.EmailsFound
	}
	if d.PhonesFound != nil {
		s.PhonesFound = *d.PhonesFound
	}
	if d.Done != nil {
		s.Done = *d.Done
	}
	if d.Error != nil {
		s.Error = *d.Error
	}
}

// Options holds the recognized per-job flags.
type Options struct {
	SkipPhone bool `json:"skipPhone"`
}

// Row is one input record keyed by column name.
type Row map[string]string

// ColumnMapping resolves column roles to input header names. CompanyURL
// is mandatory; the rest are best-effort and empty when absent.
type ColumnMapping struct {
	CompanyURL string `json:"companyUrl" yaml:"company_url"`
	Name       string `json:"name,omitempty" yaml:"name"`
	Domain     string `json:"domain,omitempty" yaml:"domain"`
	Location   string `json:"location,omitempty" yaml:"location"`
	Size       string `json:"size,omitempty" yaml:"size"`
}

// ResultRow is one emitted output record. The schema is fixed: missing
// enrichment values are empty strings, never absent fields.
type ResultRow struct {
	CompanyName     string `json:"companyName"`
	CompanyURL      string `json:"companyUrl"`
	CompanyDomain   string `json:"companyDomain"`
	CompanyLocation string `json:"companyLocation"`
	CompanySize     string `json:"companySize"`
	FullName        string `json:"fullName"`
	Title           string `json:"title"`
	Location        string `json:"location"`
	ProfileURL      string `json:"profileUrl"`
	Email           string `json:"email"`
	EmailStatus     string `json:"emailStatus"`
	Phone           string `json:"phone"`
}
