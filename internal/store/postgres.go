package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

// PostgresStore owns the connection pool shared by the three repositories.
// Rows hold the full record as a JSONB content column next to the columns
// needed for lookups (user, content hash, parent ids).
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *errors.Logger
}

// NewPostgresStore connects and verifies the database is reachable
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig, logger *errors.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Invalid PostgreSQL DSN", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to create PostgreSQL pool", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to connect to PostgreSQL", err)
	}

	if logger != nil {
		logger.Debug("Connected to PostgreSQL", "max_conns", poolCfg.MaxConns)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// EnsureSchema creates tables and indexes if they do not exist yet
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS job_descriptions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL,
			content JSONB NOT NULL,
			analyzed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_job_descriptions_hash ON job_descriptions (content_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_job_descriptions_user ON job_descriptions (user_id)`,
		`CREATE TABLE IF NOT EXISTS master_resumes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			content JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_master_resumes_user ON master_resumes (user_id)`,
		`CREATE TABLE IF NOT EXISTS tailored_resumes (
			id TEXT PRIMARY KEY,
			master_resume_id TEXT NOT NULL,
			job_description_id TEXT NOT NULL,
			content JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to bootstrap PostgreSQL schema", err)
		}
	}
	return nil
}

// Close shuts down the connection pool
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// JobDescriptions returns the job description repository
func (p *PostgresStore) JobDescriptions() JobDescriptionStore {
	return &postgresJDStore{p}
}

// MasterResumes returns the master resume repository
func (p *PostgresStore) MasterResumes() MasterResumeStore {
	return &postgresResumeStore{p}
}

// TailoredResumes returns the tailored resume repository
func (p *PostgresStore) TailoredResumes() TailoredResumeStore {
	return &postgresTailoredStore{p}
}

type postgresJDStore struct {
	*PostgresStore
}

var _ JobDescriptionStore = (*postgresJDStore)(nil)

func (p *postgresJDStore) Save(ctx context.Context, jd *types.JobDescription) error {
	if jd.ID == "" {
		jd.ID = newRecordID()
	}
	content, err := json.Marshal(jd)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStoreFailure, "Failed to encode job description", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO job_descriptions (id, user_id, content_hash, content, analyzed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			content_hash = EXCLUDED.content_hash,
			content = EXCLUDED.content,
			analyzed_at = EXCLUDED.analyzed_at`,
		jd.ID, jd.UserID, jd.ContentHash, content, normalizeTime(jd.AnalyzedAt))
	if err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to save job description", err)
	}
	return nil
}

func (p *postgresJDStore) GetByID(ctx context.Context, id string) (*types.JobDescription, error) {
	var content []byte
	err := p.pool.QueryRow(ctx,
		`SELECT content FROM job_descriptions WHERE id = $1`, id).Scan(&content)
	if err == pgx.ErrNoRows {
		return nil, errors.NewNotFoundError(errors.ErrCodeJDNotFound,
			fmt.Sprintf("Job description not found: %s", id), nil)
	}
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to load job description", err)
	}
	return decodeRecord[types.JobDescription](content, "job description")
}

func (p *postgresJDStore) GetByHash(ctx context.Context, contentHash string) (*types.JobDescription, error) {
	var content []byte
	err := p.pool.QueryRow(ctx, `
		SELECT content FROM job_descriptions
		WHERE content_hash = $1
		ORDER BY analyzed_at DESC, id
		LIMIT 1`, contentHash).Scan(&content)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to load job description by hash", err)
	}
	return decodeRecord[types.JobDescription](content, "job description")
}

func (p *postgresJDStore) ListByUser(ctx context.Context, userID string, limit int) ([]*types.JobDescription, error) {
	query := `
		SELECT content FROM job_descriptions
		WHERE user_id = $1
		ORDER BY analyzed_at DESC, id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to list job descriptions", err)
	}
	defer rows.Close()

	out := make([]*types.JobDescription, 0)
	for rows.Next() {
		var content []byte
		if err := rows.Scan(&content); err != nil {
			return nil, errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to scan job description row", err)
		}
		jd, err := decodeRecord[types.JobDescription](content, "job description")
		if err != nil {
			return nil, err
		}
		out = append(out, jd)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to list job descriptions", err)
	}
	return out, nil
}

type postgresResumeStore struct {
	*PostgresStore
}

var _ MasterResumeStore = (*postgresResumeStore)(nil)

func (p *postgresResumeStore) Save(ctx context.Context, resume *types.MasterResume) error {
	if resume.ID == "" {
		resume.ID = newRecordID()
	}
	content, err := json.Marshal(resume)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStoreFailure, "Failed to encode master resume", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO master_resumes (id, user_id, content, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			content = EXCLUDED.content,
			updated_at = EXCLUDED.updated_at`,
		resume.ID, resume.UserID, content, normalizeTime(resume.UpdatedAt))
	if err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to save master resume", err)
	}
	return nil
}

func (p *postgresResumeStore) GetByID(ctx context.Context, id string) (*types.MasterResume, error) {
	var content []byte
	err := p.pool.QueryRow(ctx,
		`SELECT content FROM master_resumes WHERE id = $1`, id).Scan(&content)
	if err == pgx.ErrNoRows {
		return nil, errors.NewNotFoundError(errors.ErrCodeResumeNotFound,
			fmt.Sprintf("Master resume not found: %s", id), nil)
	}
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to load master resume", err)
	}
	return decodeRecord[types.MasterResume](content, "master resume")
}

func (p *postgresResumeStore) ListByUser(ctx context.Context, userID string, limit int) ([]*types.MasterResume, error) {
	query := `
		SELECT content FROM master_resumes
		WHERE user_id = $1
		ORDER BY updated_at DESC, id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to list master resumes", err)
	}
	defer rows.Close()

	out := make([]*types.MasterResume, 0)
	for rows.Next() {
		var content []byte
		if err := rows.Scan(&content); err != nil {
			return nil, errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to scan master resume row", err)
		}
		resume, err := decodeRecord[types.MasterResume](content, "master resume")
		if err != nil {
			return nil, err
		}
		out = append(out, resume)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to list master resumes", err)
	}
	return out, nil
}

type postgresTailoredStore struct {
	*PostgresStore
}

var _ TailoredResumeStore = (*postgresTailoredStore)(nil)

func (p *postgresTailoredStore) Save(ctx context.Context, tailored *types.TailoredResume) error {
	if tailored.ID == "" {
		tailored.ID = newRecordID()
	}
	content, err := json.Marshal(tailored)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStoreFailure, "Failed to encode tailored resume", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO tailored_resumes (id, master_resume_id, job_description_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			master_resume_id = EXCLUDED.master_resume_id,
			job_description_id = EXCLUDED.job_description_id,
			content = EXCLUDED.content,
			created_at = EXCLUDED.created_at`,
		tailored.ID, tailored.MasterResumeID, tailored.JobDescriptionID, content, normalizeTime(tailored.CreatedAt))
	if err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to save tailored resume", err)
	}
	return nil
}

func (p *postgresTailoredStore) GetByID(ctx context.Context, id string) (*types.TailoredResume, error) {
	var content []byte
	err := p.pool.QueryRow(ctx,
		`SELECT content FROM tailored_resumes WHERE id = $1`, id).Scan(&content)
	if err == pgx.ErrNoRows {
		return nil, errors.NewNotFoundError(errors.ErrCodeTailoredNotFound,
			fmt.Sprintf("Tailored resume not found: %s", id), nil)
	}
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to load tailored resume", err)
	}
	return decodeRecord[types.TailoredResume](content, "tailored resume")
}

// UpdateBulletStatus rewrites one optimization inside the stored JSONB
// content. The row is locked for the read-modify-write.
func (p *postgresTailoredStore) UpdateBulletStatus(ctx context.Context, tailoredID, bulletID string, status types.OptimizationStatus) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var content []byte
	err = tx.QueryRow(ctx,
		`SELECT content FROM tailored_resumes WHERE id = $1 FOR UPDATE`, tailoredID).Scan(&content)
	if err == pgx.ErrNoRows {
		return errors.NewNotFoundError(errors.ErrCodeTailoredNotFound,
			fmt.Sprintf("Tailored resume not found: %s", tailoredID), nil)
	}
	if err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to load tailored resume", err)
	}

	tailored, err := decodeRecord[types.TailoredResume](content, "tailored resume")
	if err != nil {
		return err
	}

	found := false
	for i := range tailored.BulletOptimizations {
		if tailored.BulletOptimizations[i].BulletID == bulletID {
			tailored.BulletOptimizations[i].Status = status
			found = true
			break
		}
	}
	if !found {
		return errors.NewNotFoundError(errors.ErrCodeTailoredNotFound,
			fmt.Sprintf("Bullet optimization not found: %s", bulletID), nil)
	}

	updated, err := json.Marshal(tailored)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStoreFailure, "Failed to encode tailored resume", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE tailored_resumes SET content = $2 WHERE id = $1`, tailoredID, updated); err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to update bullet status", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailure, "Failed to commit bullet status update", err)
	}
	return nil
}

func decodeRecord[T any](content []byte, kind string) (*T, error) {
	record := new(T)
	if err := json.Unmarshal(content, record); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailure,
			fmt.Sprintf("Failed to decode stored %s", kind), err)
	}
	return record, nil
}

// normalizeTime keeps NOT NULL timestamp columns meaningful when a record
// arrives without one.
func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
