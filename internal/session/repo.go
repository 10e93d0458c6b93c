package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("session not found")
)

type Repository interface {
	GetByDevice(ctx context.Context, deviceID string) (*Session, error)
	Create(ctx context.Context, s *Session) error
	Touch(ctx context.Context, sessionID string) error
	LinkUser(ctx context.Context, sessionID, userID string) error
	MergeMetadata(ctx context.Context, sessionID string, patch map[string]any) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) GetByDevice(ctx context.Context, deviceID string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		s       Session
		metaRaw []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, device_id, user_id, created_at, last_active, metadata
		FROM sessions WHERE device_id=$1
	`, deviceID).Scan(&s.ID, &s.DeviceID, &s.UserID, &s.CreatedAt, &s.LastActive, &metaRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Metadata = map[string]any{}
	if len(metaRaw) > 0 {
		if err := json.Unmarshal(metaRaw, &s.Metadata); err != nil {
			return nil, fmt.Errorf("decode session metadata: %w", err)
		}
	}
	return &s, nil
}

func (r *PGRepo) Create(ctx context.Context, s *Session) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	meta, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("encode session metadata: %w", err)
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO sessions (id, device_id, user_id, created_at, last_active, metadata)
		VALUES ($1,$2,$3,NOW(),NOW(),$4)
		RETURNING created_at, last_active
	`, s.ID, s.DeviceID, s.UserID, meta).Scan(&s.CreatedAt, &s.LastActive)
}

func (r *PGRepo) Touch(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE sessions SET last_active=NOW() WHERE id=$1
	`, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkUser attaches a user identity; re-linking the same user is a no-op.
func (r *PGRepo) LinkUser(ctx context.Context, sessionID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE sessions SET user_id=$2 WHERE id=$1
	`, sessionID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MergeMetadata shallow-merges the patch into the stored bag, last write
// wins per key. jsonb || does exactly that server-side.
func (r *PGRepo) MergeMetadata(ctx context.Context, sessionID string, patch map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode metadata patch: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions SET metadata = metadata || $2::jsonb WHERE id=$1
	`, sessionID, p)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
