// Package tasks runs update pipelines asynchronously. Each task owns a
// cancellable context and moves through pending, running and one of the
// terminal states resolved, failed or cancelled.
package tasks

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/nunc/internal/harmonize"
)

// State is the position of a task in its lifecycle.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateResolved  State = "resolved"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further transition can occur.
func (s State) Terminal() bool {
	switch s {
	case StateResolved, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Task is a snapshot of an asynchronous pipeline run.
type Task struct {
	ID          uuid.UUID         `json:"id"`
	State       State             `json:"state"`
	SourceName  string            `json:"source_name"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Error       string            `json:"error,omitempty"`
	Status      int               `json:"error_status,omitempty"`
	ArchiveKey  string            `json:"archive_key,omitempty"`
	Result      *harmonize.Result `json:"result,omitempty"`
}

// ArchiveKey returns the storage key of the archived output document of a task.
func ArchiveKey(id uuid.UUID) string {
	return "updates/" + id.String() + "/" + harmonize.OutputFilename
}

// fingerprint identifies identical submissions. Each field is length
// prefixed so that boundaries between fields cannot collide.
func fingerprint(req harmonize.Request) string {
	h := sha256.New()
	for _, field := range [][]byte{
		[]byte(req.Credential),
		req.Document,
		[]byte(req.Change),
	} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(field)))
		h.Write(n[:])
		h.Write(field)
	}
	return hex.EncodeToString(h.Sum(nil))
}
