// Package user stores the anonymous user row behind each device. A device
// gets exactly one user, created lazily the first time its session is
// linked.
package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("user not found")
)

type User struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	Ensure(ctx context.Context, deviceID string) (*User, error)
	GetByDevice(ctx context.Context, deviceID string) (*User, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// Ensure returns the device's user, creating it on first call. The upsert
// makes concurrent first calls converge on one row.
func (r *PGRepo) Ensure(ctx context.Context, deviceID string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var u User
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, device_id, created_at)
		VALUES ($1,$2,NOW())
		ON CONFLICT (device_id) DO UPDATE SET device_id=EXCLUDED.device_id
		RETURNING id, device_id, created_at
	`, uuid.NewString(), deviceID).Scan(&u.ID, &u.DeviceID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGRepo) GetByDevice(ctx context.Context, deviceID string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var u User
	err := r.db.QueryRow(ctx, `
		SELECT id, device_id, created_at FROM users WHERE device_id=$1
	`, deviceID).Scan(&u.ID, &u.DeviceID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
