package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("order not found")
)

type Repository interface {
	GetPending(ctx context.Context, deviceID string) (*Order, error)
	Create(ctx context.Context, o *Order) error
	UpdateItems(ctx context.Context, orderID string, items []Item, total decimal.Decimal) error
	UpdateStatus(ctx context.Context, orderID, status string, paymentStatus *string) error
	CancelPending(ctx context.Context, deviceID string) (bool, error)
	ArchivePaid(ctx context.Context, orderID string, e *HistoryEntry) error
	History(ctx context.Context, deviceID string, from, to *time.Time) ([]HistoryEntry, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// GetPending returns the device's live order. 'draft' rows from older
// writers count as pending and are normalized on the way out.
func (r *PGRepo) GetPending(ctx context.Context, deviceID string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		o        Order
		itemsRaw []byte
		total    string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, device_id, user_id, items, total_amount::text, status, scheduled_for, created_at
		FROM orders
		WHERE device_id=$1 AND status IN ('pending','draft')
		ORDER BY created_at DESC LIMIT 1
	`, deviceID).Scan(&o.ID, &o.DeviceID, &o.UserID, &itemsRaw, &total, &o.Status, &o.ScheduledFor, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("decode order total: %w", err)
	}
	if o.Status == StatusDraft {
		o.Status = StatusPending
	}
	return &o, nil
}

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO orders (id, device_id, user_id, items, total_amount, status, scheduled_for, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
		RETURNING created_at
	`, o.ID, o.DeviceID, o.UserID, items, o.TotalAmount.String(), o.Status, o.ScheduledFor).Scan(&o.CreatedAt)
}

func (r *PGRepo) UpdateItems(ctx context.Context, orderID string, its []Item, total decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	items, err := json.Marshal(its)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET items=$2, total_amount=$3 WHERE id=$1
	`, orderID, items, total.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) UpdateStatus(ctx context.Context, orderID, status string, paymentStatus *string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status=$2, payment_status=COALESCE($3, payment_status) WHERE id=$1
	`, orderID, status, paymentStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelPending cancels the device's live order. Returns false without an
// error when there is nothing to cancel.
func (r *PGRepo) CancelPending(ctx context.Context, deviceID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status='cancelled'
		WHERE device_id=$1 AND status IN ('pending','draft')
	`, deviceID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ArchivePaid writes the history row and flips the order to completed/paid
// in one transaction, so a confirmed payment can never leave a history row
// behind a still-pending order.
func (r *PGRepo) ArchivePaid(ctx context.Context, orderID string, e *HistoryEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	items, err := json.Marshal(e.Items)
	if err != nil {
		return fmt.Errorf("encode history items: %w", err)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `
		INSERT INTO order_history (id, device_id, order_id, items, total, payment_status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		RETURNING created_at
	`, e.ID, e.DeviceID, e.OrderID, items, e.Total.String(), e.PaymentStatus).Scan(&e.CreatedAt); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, payment_status=$3 WHERE id=$1
	`, orderID, StatusCompleted, PaymentPaid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) History(ctx context.Context, deviceID string, from, to *time.Time) ([]HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, device_id, order_id, items, total::text, payment_status, created_at
		FROM order_history
		WHERE device_id=$1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at DESC
	`, deviceID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []HistoryEntry{}
	for rows.Next() {
		var (
			e        HistoryEntry
			itemsRaw []byte
			total    string
		)
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.OrderID, &itemsRaw, &total, &e.PaymentStatus, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(itemsRaw, &e.Items); err != nil {
			return nil, fmt.Errorf("decode history items: %w", err)
		}
		if e.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("decode history total: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
