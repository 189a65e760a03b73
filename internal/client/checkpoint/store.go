package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/camtrapkit/uploader/internal/client/kv"
	"github.com/camtrapkit/uploader/internal/common"
)

// KeyPrefix namespaces checkpoint keys so they never collide with unrelated
// persisted state in the same store.
const KeyPrefix = "upload_state_"

func recordKey(jobID string) string {
	return KeyPrefix + jobID
}

// Store reads and writes checkpoints through an injected keyed store. All
// mutations are full read-modify-writes of the record under its jobID.
type Store struct {
	kv kv.Store
}

func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// Save writes cp under its jobID, replacing any previous record. The uploaded
// counter is recomputed from the file list before writing so the two can
// never be stored out of step.
func (s *Store) Save(ctx context.Context, cp *Checkpoint) error {
	cp.Uploaded = cp.CountComplete()

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encoding checkpoint %s: %w", cp.JobID, err)
	}

	if err := s.kv.Set(ctx, recordKey(cp.JobID), data); err != nil {
		return fmt.Errorf("saving checkpoint %s: %w", cp.JobID, err)
	}
	return nil
}

// Load returns the checkpoint for jobID, or common.ErrorNotFound.
func (s *Store) Load(ctx context.Context, jobID string) (*Checkpoint, error) {
	data, err := s.kv.Get(ctx, recordKey(jobID))
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint %s: %w", jobID, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", jobID, err)
	}
	return &cp, nil
}

// UpdateFileStatus resolves identity against the job's file list (see
// ResolveFile), sets the file's status, and returns the new uploaded count.
// The whole step runs as one atomic read-modify-write.
func (s *Store) UpdateFileStatus(ctx context.Context, jobID, identity, status string) (int, error) {
	var uploaded int

	err := s.kv.Update(ctx, recordKey(jobID), func(old []byte, found bool) ([]byte, error) {
		if !found {
			return nil, fmt.Errorf("checkpoint %s: %w", jobID, common.ErrorNotFound)
		}

		var cp Checkpoint
		if err := json.Unmarshal(old, &cp); err != nil {
			return nil, fmt.Errorf("decoding checkpoint %s: %w", jobID, err)
		}

		i := ResolveFile(cp.Files, identity)
		if i < 0 {
			return nil, fmt.Errorf("file %q in checkpoint %s: %w", identity, jobID, common.ErrorNotFound)
		}

		cp.Files[i].Status = status
		cp.Uploaded = cp.CountComplete()
		uploaded = cp.Uploaded

		return json.Marshal(&cp)
	})
	if err != nil {
		return 0, err
	}

	return uploaded, nil
}

// Delete erases the checkpoint for jobID.
func (s *Store) Delete(ctx context.Context, jobID string) error {
	if err := s.kv.Delete(ctx, recordKey(jobID)); err != nil {
		return fmt.Errorf("deleting checkpoint %s: %w", jobID, err)
	}
	return nil
}

// ListIncomplete returns checkpoints that still have pending files, most
// recent first. Jobs with nothing pending are resolved and are never offered
// for resume. Callers use the head of the list as the sole resume candidate;
// resuming at most one job at a time is a deliberate policy, not an accident
// of ordering.
func (s *Store) ListIncomplete(ctx context.Context) ([]*Checkpoint, error) {
	pairs, err := s.kv.ListPrefix(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}

	var result []*Checkpoint
	for _, p := range pairs {
		var cp Checkpoint
		if err := json.Unmarshal(p.Value, &cp); err != nil {
			return nil, fmt.Errorf("decoding checkpoint %s: %w", p.Key, err)
		}
		if len(cp.PendingFiles()) == 0 {
			continue
		}
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	return result, nil
}
