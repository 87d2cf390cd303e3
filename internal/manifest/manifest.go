// Package manifest records which units of a batch produced artifacts and
// where they were stored.
package manifest

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of one unit
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Entry is one attempted unit
type Entry struct {
	Model    string
	Unit     int // schema id or solution index
	Artifact string
	Location string // empty for failed units
	Status   Status
	Error    string
}

// Manifest is the record of one batch run
type Manifest struct {
	RunID     uuid.UUID
	StartedAt time.Time
	Entries   []Entry
}

// New creates an empty manifest with a fresh run ID
func New() *Manifest {
	return &Manifest{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
		Entries:   []Entry{},
	}
}

// Sort orders entries by model, then unit
func (m *Manifest) Sort() {
	sort.SliceStable(m.Entries, func(i, j int) bool {
		if m.Entries[i].Model != m.Entries[j].Model {
			return m.Entries[i].Model < m.Entries[j].Model
		}
		return m.Entries[i].Unit < m.Entries[j].Unit
	})
}

// Succeeded returns the entries with stored artifacts
func (m *Manifest) Succeeded() []Entry {
	return m.filter(StatusOK)
}

// Failed returns the entries whose unit failed
func (m *Manifest) Failed() []Entry {
	return m.filter(StatusFailed)
}

func (m *Manifest) filter(status Status) []Entry {
	out := []Entry{}
	for _, e := range m.Entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}
