package replicate

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobState is the lifecycle of a tracked replication job.
type JobState string

const (
	// JobRunning means the job is still executing.
	JobRunning JobState = "running"

	// JobSucceeded means the job finished with every step successful.
	JobSucceeded JobState = "succeeded"

	// JobFailed means the job finished with at least one failed step.
	JobFailed JobState = "failed"
)

// Job is the observable record of one replication operation: its identity,
// lifecycle, and the ordered events it emitted.
type Job struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	State      JobState   `json:"state"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Events     []Event    `json:"events"`
}

// jobRegistry tracks in-flight and completed jobs for status reporting.
// All access is mutex-guarded; a job's event slice grows append-only.
type jobRegistry struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[string]*Job)}
}

// begin registers a new running job and returns its id.
func (r *jobRegistry) begin(kind string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.jobs[id] = &Job{
		ID:        id,
		Kind:      kind,
		State:     JobRunning,
		StartedAt: time.Now().UTC(),
	}
	return id
}

// record appends an event to the job's log.
func (r *jobRegistry) record(id string, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}
	job.Events = append(job.Events, e)
}

// finish marks the job terminal.
func (r *jobRegistry) finish(id string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, found := r.jobs[id]
	if !found {
		return
	}
	now := time.Now().UTC()
	job.FinishedAt = &now
	if ok {
		job.State = JobSucceeded
	} else {
		job.State = JobFailed
	}
}

// snapshot returns deep copies of every job, newest first.
func (r *jobRegistry) snapshot() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		cp := *job
		cp.Events = append([]Event(nil), job.Events...)
		if job.FinishedAt != nil {
			t := *job.FinishedAt
			cp.FinishedAt = &t
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// get returns a deep copy of one job.
func (r *jobRegistry) get(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	cp := *job
	cp.Events = append([]Event(nil), job.Events...)
	if job.FinishedAt != nil {
		t := *job.FinishedAt
		cp.FinishedAt = &t
	}
	return cp, true
}
