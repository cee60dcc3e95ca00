package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/engine"
	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/pkg/prospeo"
)

// DefaultRetention is how long a job stays visible to lookups, measured
// from creation and independent of run completion.
const DefaultRetention = 2 * time.Hour

// ClientFactory builds a provider client from a job's credential.
type ClientFactory func(credential string) prospeo.Client

// Registry owns every job in the process. Jobs are created, looked up,
// and expired here; each job's orchestrator goroutine is started once
// at creation and never restarted.
type Registry struct {
	engine    *engine.Engine
	retention time.Duration
	newClient ClientFactory

	mu   sync.Mutex
	jobs map[string]*Job
}

// Option configures the registry.
type Option func(*Registry)

// WithRetention overrides the job retention window.
func WithRetention(d time.Duration) Option {
	return func(r *Registry) {
		r.retention = d
	}
}

// WithClientFactory overrides how provider clients are built (for tests).
func WithClientFactory(f ClientFactory) Option {
	return func(r *Registry) {
		r.newClient = f
	}
}

// NewRegistry creates a registry running jobs on the given engine.
func NewRegistry(eng *engine.Engine, opts ...Option) *Registry {
	r := &Registry{
		engine:    eng,
		retention: DefaultRetention,
		newClient: func(credential string) prospeo.Client {
			return prospeo.NewClient(credential)
		},
		jobs: make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create validates the inputs, registers a new job under a fresh id,
// starts its orchestrator run without blocking the creator, and
// schedules removal after the retention window. An in-flight run whose
// job has expired continues, but its writes become unobservable.
func (r *Registry) Create(rows []model.Row, mapping model.ColumnMapping, credential string, opts model.Options) (*Job, error) {
	if len(rows) == 0 {
		return nil, eris.New("jobs: no input rows")
	}
	if mapping.CompanyURL == "" {
		return nil, eris.New("jobs: column mapping has no company URL column")
	}
	if credential == "" {
		return nil, eris.New("jobs: missing provider credential")
	}

	j := newJob(uuid.NewString(), rows, mapping, credential, opts)

	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()

	time.AfterFunc(r.retention, func() {
		r.remove(j.ID)
	})

	zap.L().Info("job created",
		zap.String("job_id", j.ID),
		zap.Int("rows", len(rows)),
		zap.String("url_column", mapping.CompanyURL),
		zap.Bool("skip_phone", opts.SkipPhone),
	)

	// The run owns its own lifetime: no cancellation once started.
	go r.engine.Run(context.Background(), r.newClient(credential), j.Rows, j.Mapping, j.Options, j)

	return j, nil
}

// Get returns the job by id, or false if it was never created or has
// already been expired.
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	return j, ok
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; ok {
		delete(r.jobs, id)
		zap.L().Info("job expired", zap.String("job_id", id))
	}
}
