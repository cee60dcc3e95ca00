// Package jobs owns the set of in-flight and completed enrichment
// jobs, their time-boxed retention, and progress subscriptions.
package jobs

import (
	"sync"
	"time"

	"github.com/sells-group/leadflow/internal/model"
)

// subscriberBuffer sizes each subscriber's snapshot queue. A slow
// subscriber whose queue fills drops intermediate snapshots instead of
// blocking the orchestrator; progress push is best effort.
const subscriberBuffer = 64

// Job is one enrichment run. Inputs are immutable for the job's
// lifetime; the snapshot and result set are mutated only by the job's
// orchestrator goroutine and read under the same lock by subscribers
// and the download path.
type Job struct {
	ID        string
	Rows      []model.Row
	Mapping   model.ColumnMapping
	Options   model.Options
	CreatedAt time.Time

	credential string

	mu       sync.Mutex
	snapshot model.Snapshot
	results  []model.ResultRow
	subs     map[int]chan model.Snapshot
	nextSub  int
}

func newJob(id string, rows []model.Row, mapping model.ColumnMapping, credential string, opts model.Options) *Job {
	return &Job{
		ID:         id,
		Rows:       rows,
		Mapping:    mapping,
		Options:    opts,
		CreatedAt:  time.Now(),
		credential: credential,
		snapshot:   model.Snapshot{Phase: model.PhaseQueued, CompanyTotal: len(rows)},
		subs:       make(map[int]chan model.Snapshot),
	}
}

// Publish merges a delta into the snapshot and pushes the updated
// snapshot to every current subscriber. Full subscriber queues are
// skipped; the subscriber catches up on the next update.
func (j *Job) Publish(d model.Delta) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.snapshot.Apply(d)
	for _, ch := range j.subs {
		select {
		case ch <- j.snapshot:
		default:
		}
	}
}

// Append adds one result row. Only the orchestrator calls this.
func (j *Job) Append(r model.ResultRow) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results = append(j.results, r)
}

// Snapshot returns the current status record.
func (j *Job) Snapshot() model.Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshot
}

// Results returns the accumulated result rows and whether they are
// ready, which is the case only once the job's phase is done.
func (j *Job) Results() ([]model.ResultRow, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.snapshot.Phase != model.PhaseDone {
		return nil, false
	}
	out := make([]model.ResultRow, len(j.results))
	copy(out, j.results)
	return out, true
}

// Subscribe attaches a progress listener. The returned channel
// immediately carries the current snapshot, then every subsequent
// update until Unsubscribe. Detaching never affects the run.
func (j *Job) Subscribe() (int, <-chan model.Snapshot) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id := j.nextSub
	j.nextSub++
	ch := make(chan model.Snapshot, subscriberBuffer)
	ch <- j.snapshot
	j.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a listener from the publish set.
func (j *Job) Unsubscribe(id int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.subs, id)
}
