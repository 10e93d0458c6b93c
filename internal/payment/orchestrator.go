package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tobiadex/chopchat/internal/order"
)

var (
	ErrInit   = errors.New("payment initialization failed")
	ErrVerify = errors.New("payment verification failed")
)

// Record bridges a pending order to the gateway checkout. It is never
// stored; the history entry written at reconcile time is the durable trace.
type Record struct {
	OrderID          string          `json:"order_id"`
	Amount           decimal.Decimal `json:"amount"`
	AmountMinor      int64           `json:"amount_minor"`
	Reference        string          `json:"reference"`
	AuthorizationURL string          `json:"authorization_url"`
}

// Orchestrator drives the checkout handoff and the asynchronous
// confirmation that follows it.
type Orchestrator struct {
	gw          Gateway
	orders      *order.Service
	callbackURL string
	log         *zap.Logger
}

func NewOrchestrator(gw Gateway, orders *order.Service, callbackURL string, log *zap.Logger) *Orchestrator {
	return &Orchestrator{gw: gw, orders: orders, callbackURL: callbackURL, log: log}
}

// MinorUnits converts a major-unit amount to the gateway's integer minor
// unit, rounding half up.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Initialize opens a gateway transaction for the device's pending order.
// It is never retried automatically: a second call would open a second
// transaction, so the retry decision belongs to the user.
func (p *Orchestrator) Initialize(ctx context.Context, deviceID string) (*Record, error) {
	o, err := p.orders.CurrentOrder(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if len(o.Items) == 0 {
		return nil, order.ErrEmptyOrder
	}

	minor := MinorUnits(o.TotalAmount)
	res, err := p.gw.Initialize(ctx, minor, deviceID, p.callbackURL)
	if err != nil {
		p.log.Error("gateway initialize failed",
			zap.String("device_id", deviceID), zap.String("order_id", o.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	return &Record{
		OrderID:          o.ID,
		Amount:           o.TotalAmount,
		AmountMinor:      minor,
		Reference:        res.Reference,
		AuthorizationURL: res.AuthorizationURL,
	}, nil
}

// Reconcile confirms a gateway reference and, on success, archives the
// order as paid and marks it completed. The write half is idempotent: once
// the order has left pending, replaying the reference changes nothing, so
// no duplicate history entry can appear. A failed confirmation leaves the
// order pending for the user to retry or cancel.
func (p *Orchestrator) Reconcile(ctx context.Context, reference string) (bool, error) {
	res, err := p.gw.Verify(ctx, reference)
	if err != nil {
		p.log.Error("gateway verify failed", zap.String("reference", reference), zap.Error(err))
		return false, fmt.Errorf("%w: %v", ErrVerify, err)
	}
	if res.Status != "success" {
		p.log.Info("payment not confirmed",
			zap.String("reference", reference), zap.String("status", res.Status))
		return false, nil
	}

	done, err := p.orders.CompletePaid(ctx, res.DeviceID)
	if err != nil {
		return false, err
	}
	if !done {
		p.log.Info("payment already reconciled",
			zap.String("reference", reference), zap.String("device_id", res.DeviceID))
	}
	return true, nil
}
