package order

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tobiadex/chopchat/internal/menu"
)

var (
	ErrEmptyOrder  = errors.New("order has no items")
	ErrUnknownItem = errors.New("unknown menu item")
)

// Service owns all reads and writes of a device's live order. Mutations are
// read-modify-write against persisted state, so commands for one device are
// serialized on a per-device mutex; different devices never contend.
type Service struct {
	repo    Repository
	taxRate decimal.Decimal
	log     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(repo Repository, taxRate decimal.Decimal, log *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		taxRate: taxRate,
		log:     log,
		locks:   map[string]*sync.Mutex{},
	}
}

func (s *Service) deviceLock(deviceID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[deviceID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[deviceID] = l
	}
	return l
}

// AddItem merges qty units of a catalog item into the device's live order,
// creating the order on first add.
func (s *Service) AddItem(ctx context.Context, deviceID string, menuItemID, qty int) (*Order, error) {
	mi, ok := menu.ByID(menuItemID)
	if !ok {
		return nil, ErrUnknownItem
	}

	l := s.deviceLock(deviceID)
	l.Lock()
	defer l.Unlock()

	o, err := s.repo.GetPending(ctx, deviceID)
	switch {
	case errors.Is(err, ErrNotFound):
		o = NewDraft(deviceID)
		o.ID = uuid.NewString()
		o.AddItem(mi, qty)
		if err := s.repo.Create(ctx, o); err != nil {
			return nil, err
		}
		return o, nil
	case err != nil:
		return nil, err
	}

	o.AddItem(mi, qty)
	if err := s.repo.UpdateItems(ctx, o.ID, o.Items, o.TotalAmount); err != nil {
		return nil, err
	}
	return o, nil
}

// RemoveItem drops an item from the live order.
func (s *Service) RemoveItem(ctx context.Context, deviceID string, menuItemID int) (*Order, error) {
	return s.mutate(ctx, deviceID, func(o *Order) { o.RemoveItem(menuItemID) })
}

// SetQuantity pins an item's quantity; zero or less removes it.
func (s *Service) SetQuantity(ctx context.Context, deviceID string, menuItemID, qty int) (*Order, error) {
	return s.mutate(ctx, deviceID, func(o *Order) { o.SetQuantity(menuItemID, qty) })
}

func (s *Service) mutate(ctx context.Context, deviceID string, fn func(*Order)) (*Order, error) {
	l := s.deviceLock(deviceID)
	l.Lock()
	defer l.Unlock()

	o, err := s.repo.GetPending(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	fn(o)
	if err := s.repo.UpdateItems(ctx, o.ID, o.Items, o.TotalAmount); err != nil {
		return nil, err
	}
	return o, nil
}

// CurrentOrder is a read-only lookup of the device's live order. Transient
// storage failures are retried once before surfacing.
func (s *Service) CurrentOrder(ctx context.Context, deviceID string) (*Order, error) {
	o, err := s.repo.GetPending(ctx, deviceID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Warn("pending order lookup failed, retrying once",
			zap.String("device_id", deviceID), zap.Error(err))
		o, err = s.repo.GetPending(ctx, deviceID)
	}
	return o, err
}

// Place marks the live order placed, stamping the optional delivery slot.
// An order with no items is rejected and nothing is written.
func (s *Service) Place(ctx context.Context, deviceID string, scheduledFor *time.Time) (*Order, error) {
	l := s.deviceLock(deviceID)
	l.Lock()
	defer l.Unlock()

	o, err := s.repo.GetPending(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if len(o.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	o.Status = StatusPlaced
	o.ScheduledFor = scheduledFor
	if err := s.repo.UpdateStatus(ctx, o.ID, StatusPlaced, nil); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel cancels the device's live order. A device with nothing pending
// gets false back, not an error, and no write happens.
func (s *Service) Cancel(ctx context.Context, deviceID string) (bool, error) {
	l := s.deviceLock(deviceID)
	l.Lock()
	defer l.Unlock()
	return s.repo.CancelPending(ctx, deviceID)
}

// History lists the device's archived orders newest first, optionally
// bounded by a date range. No orders is an empty slice, not an error.
func (s *Service) History(ctx context.Context, deviceID string, from, to *time.Time) ([]HistoryEntry, error) {
	es, err := s.repo.History(ctx, deviceID, from, to)
	if err != nil {
		s.log.Warn("history lookup failed, retrying once",
			zap.String("device_id", deviceID), zap.Error(err))
		es, err = s.repo.History(ctx, deviceID, from, to)
	}
	return es, err
}

// CompletePaid archives the device's live order as paid and marks it
// completed. It is the reconcile step's write half and is idempotent: once
// the order has left the pending state, replaying the same confirmation is
// a no-op and returns false. The archive row and the status flip commit
// together, so a failed attempt leaves no history row behind a pending
// order and a retry starts from a clean state.
func (s *Service) CompletePaid(ctx context.Context, deviceID string) (bool, error) {
	l := s.deviceLock(deviceID)
	l.Lock()
	defer l.Unlock()

	o, err := s.repo.GetPending(ctx, deviceID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	entry := &HistoryEntry{
		ID:            uuid.NewString(),
		DeviceID:      o.DeviceID,
		OrderID:       o.ID,
		Items:         o.Items,
		Total:         o.TotalAmount,
		PaymentStatus: PaymentPaid,
	}
	if err := s.repo.ArchivePaid(ctx, o.ID, entry); err != nil {
		return false, err
	}
	return true, nil
}

// Summarize applies the configured tax rate at display time.
func (s *Service) Summarize(o *Order) Summary {
	return o.Summarize(s.taxRate)
}
