package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

// JobDescriptionStore persists analyzed job descriptions.
// GetByID returns a NotFoundError for unknown ids; GetByHash is a probe and
// returns (nil, nil) on a miss. ListByUser returns newest first; limit caps
// the result and 0 means unlimited.
type JobDescriptionStore interface {
	Save(ctx context.Context, jd *types.JobDescription) error
	GetByID(ctx context.Context, id string) (*types.JobDescription, error)
	GetByHash(ctx context.Context, contentHash string) (*types.JobDescription, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*types.JobDescription, error)
}

// MasterResumeStore persists master resumes. ListByUser returns newest
// first; limit caps the result and 0 means unlimited.
type MasterResumeStore interface {
	Save(ctx context.Context, resume *types.MasterResume) error
	GetByID(ctx context.Context, id string) (*types.MasterResume, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*types.MasterResume, error)
}

// TailoredResumeStore persists tailoring results. UpdateBulletStatus locates
// one optimization and rewrites its status; transition rules are enforced by
// the caller.
type TailoredResumeStore interface {
	Save(ctx context.Context, tailored *types.TailoredResume) error
	GetByID(ctx context.Context, id string) (*types.TailoredResume, error)
	UpdateBulletStatus(ctx context.Context, tailoredID, bulletID string, status types.OptimizationStatus) error
}

// Store bundles the three repositories served by one backend
type Store struct {
	JobDescriptions JobDescriptionStore
	MasterResumes   MasterResumeStore
	TailoredResumes TailoredResumeStore

	close func() error
}

// Close releases backend resources
func (s *Store) Close() error {
	if s.close != nil {
		return s.close()
	}
	return nil
}

// New selects a persistence backend from configuration. The Postgres backend
// bootstraps its schema on startup.
func New(ctx context.Context, cfg config.StoreConfig, logger *errors.Logger) (*Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		pg, err := NewPostgresStore(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return &Store{
			JobDescriptions: pg.JobDescriptions(),
			MasterResumes:   pg.MasterResumes(),
			TailoredResumes: pg.TailoredResumes(),
			close: func() error {
				pg.Close()
				return nil
			},
		}, nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported store backend: %s", cfg.Backend), nil)
	}
}

// newRecordID mints ids for records saved without one
func newRecordID() string {
	return uuid.New().String()
}
