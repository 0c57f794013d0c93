package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

// NewMemoryStore builds the in-memory backend, the default for CLI runs and
// tests. Each repository copies records on the way in and out so callers
// never share mutable state with the store.
func NewMemoryStore() *Store {
	return &Store{
		JobDescriptions: newMemoryJDStore(),
		MasterResumes:   newMemoryResumeStore(),
		TailoredResumes: newMemoryTailoredStore(),
	}
}

// clone deep-copies a record through its JSON form so stored state and
// returned state never alias each other.
func clone[T any](src *T) (*T, error) {
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeStoreFailure, "Failed to copy stored record", err)
	}
	dst := new(T)
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeStoreFailure, "Failed to copy stored record", err)
	}
	return dst, nil
}

type memoryJDStore struct {
	mu     sync.RWMutex
	byID   map[string]*types.JobDescription
	byHash map[string]string
}

var _ JobDescriptionStore = (*memoryJDStore)(nil)

func newMemoryJDStore() *memoryJDStore {
	return &memoryJDStore{
		byID:   make(map[string]*types.JobDescription),
		byHash: make(map[string]string),
	}
}

// Save upserts by id, minting an id when absent
func (m *memoryJDStore) Save(ctx context.Context, jd *types.JobDescription) error {
	if jd.ID == "" {
		jd.ID = newRecordID()
	}
	stored, err := clone(jd)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[stored.ID] = stored
	if stored.ContentHash != "" {
		m.byHash[stored.ContentHash] = stored.ID
	}
	return nil
}

func (m *memoryJDStore) GetByID(ctx context.Context, id string) (*types.JobDescription, error) {
	m.mu.RLock()
	jd, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeJDNotFound,
			fmt.Sprintf("Job description not found: %s", id), nil)
	}
	return clone(jd)
}

func (m *memoryJDStore) GetByHash(ctx context.Context, contentHash string) (*types.JobDescription, error) {
	m.mu.RLock()
	var jd *types.JobDescription
	if id, ok := m.byHash[contentHash]; ok {
		jd = m.byID[id]
	}
	m.mu.RUnlock()
	if jd == nil {
		return nil, nil
	}
	return clone(jd)
}

func (m *memoryJDStore) ListByUser(ctx context.Context, userID string, limit int) ([]*types.JobDescription, error) {
	m.mu.RLock()
	matched := make([]*types.JobDescription, 0)
	for _, jd := range m.byID {
		if jd.UserID == userID {
			matched = append(matched, jd)
		}
	}
	m.mu.RUnlock()

	// Newest first, id as a stable tie-break
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].AnalyzedAt.Equal(matched[j].AnalyzedAt) {
			return matched[i].AnalyzedAt.After(matched[j].AnalyzedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*types.JobDescription, 0, len(matched))
	for _, jd := range matched {
		copied, err := clone(jd)
		if err != nil {
			return nil, err
		}
		out = append(out, copied)
	}
	return out, nil
}

type memoryResumeStore struct {
	mu   sync.RWMutex
	byID map[string]*types.MasterResume
}

var _ MasterResumeStore = (*memoryResumeStore)(nil)

func newMemoryResumeStore() *memoryResumeStore {
	return &memoryResumeStore{byID: make(map[string]*types.MasterResume)}
}

func (m *memoryResumeStore) Save(ctx context.Context, resume *types.MasterResume) error {
	if resume.ID == "" {
		resume.ID = newRecordID()
	}
	stored, err := clone(resume)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[stored.ID] = stored
	return nil
}

func (m *memoryResumeStore) GetByID(ctx context.Context, id string) (*types.MasterResume, error) {
	m.mu.RLock()
	resume, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeResumeNotFound,
			fmt.Sprintf("Master resume not found: %s", id), nil)
	}
	return clone(resume)
}

func (m *memoryResumeStore) ListByUser(ctx context.Context, userID string, limit int) ([]*types.MasterResume, error) {
	m.mu.RLock()
	matched := make([]*types.MasterResume, 0)
	for _, resume := range m.byID {
		if resume.UserID == userID {
			matched = append(matched, resume)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*types.MasterResume, 0, len(matched))
	for _, resume := range matched {
		copied, err := clone(resume)
		if err != nil {
			return nil, err
		}
		out = append(out, copied)
	}
	return out, nil
}

type memoryTailoredStore struct {
	mu   sync.RWMutex
	byID map[string]*types.TailoredResume
}

var _ TailoredResumeStore = (*memoryTailoredStore)(nil)

func newMemoryTailoredStore() *memoryTailoredStore {
	return &memoryTailoredStore{byID: make(map[string]*types.TailoredResume)}
}

func (m *memoryTailoredStore) Save(ctx context.Context, tailored *types.TailoredResume) error {
	if tailored.ID == "" {
		tailored.ID = newRecordID()
	}
	stored, err := clone(tailored)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[stored.ID] = stored
	return nil
}

func (m *memoryTailoredStore) GetByID(ctx context.Context, id string) (*types.TailoredResume, error) {
	m.mu.RLock()
	tailored, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeTailoredNotFound,
			fmt.Sprintf("Tailored resume not found: %s", id), nil)
	}
	return clone(tailored)
}

func (m *memoryTailoredStore) UpdateBulletStatus(ctx context.Context, tailoredID, bulletID string, status types.OptimizationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tailored, ok := m.byID[tailoredID]
	if !ok {
		return errors.NewNotFoundError(errors.ErrCodeTailoredNotFound,
			fmt.Sprintf("Tailored resume not found: %s", tailoredID), nil)
	}
	for i := range tailored.BulletOptimizations {
		if tailored.BulletOptimizations[i].BulletID == bulletID {
			tailored.BulletOptimizations[i].Status = status
			return nil
		}
	}
	return errors.NewNotFoundError(errors.ErrCodeTailoredNotFound,
		fmt.Sprintf("Bullet optimization not found: %s", bulletID), nil)
}
