package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tobiadex/chopchat/internal/menu"
	"github.com/tobiadex/chopchat/internal/order"
	"github.com/tobiadex/chopchat/internal/payment"
)

type MessageType string

const (
	TypeMenu         MessageType = "menu"
	TypeCurrentOrder MessageType = "current_order"
	TypeHistory      MessageType = "history"
	TypePayment      MessageType = "payment"
	TypeSuccess      MessageType = "success"
	TypeError        MessageType = "error"
)

// OutgoingMessage is one chat bubble for the client to render. Content
// carries the typed payload; Message carries optional hint text.
type OutgoingMessage struct {
	Type    MessageType `json:"type"`
	Content any         `json:"content"`
	Message string      `json:"message,omitempty"`
}

// OrderService is the slice of the order component the dispatcher needs.
type OrderService interface {
	AddItem(ctx context.Context, deviceID string, menuItemID, qty int) (*order.Order, error)
	CurrentOrder(ctx context.Context, deviceID string) (*order.Order, error)
	Cancel(ctx context.Context, deviceID string) (bool, error)
	History(ctx context.Context, deviceID string, from, to *time.Time) ([]order.HistoryEntry, error)
	Summarize(o *order.Order) order.Summary
}

// PaymentInitializer opens the gateway handoff for a pending order.
type PaymentInitializer interface {
	Initialize(ctx context.Context, deviceID string) (*payment.Record, error)
}

// Dispatcher routes parsed commands to the state-owning components. It is
// stateless between calls; ordering guarantees come from the order
// service's per-device serialization.
type Dispatcher struct {
	orders   OrderService
	payments PaymentInitializer
	log      *zap.Logger
}

func NewDispatcher(orders OrderService, payments PaymentInitializer, log *zap.Logger) *Dispatcher {
	return &Dispatcher{orders: orders, payments: payments, log: log}
}

// MenuContent is the payload of a menu message. CategoryOrder preserves
// the catalog's presentation order, which the categories map cannot.
type MenuContent struct {
	Categories    map[string][]menu.Item `json:"categories"`
	CategoryOrder []string               `json:"category_order"`
}

// HistoryRange optionally bounds a history listing by creation date. The
// zero value means unbounded; it only affects KindShowHistory.
type HistoryRange struct {
	From *time.Time
	To   *time.Time
}

// OrderView is an order plus its display-time summary.
type OrderView struct {
	*order.Order
	order.Summary
}

// Dispatch interprets one raw message for a device and returns the bubbles
// to render. Errors map to the transport's error envelope; any state the
// command changed was persisted before Dispatch returned.
func (d *Dispatcher) Dispatch(ctx context.Context, raw, deviceID string, hist HistoryRange) ([]OutgoingMessage, error) {
	cmd, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	switch cmd.Kind {
	case KindShowMenu:
		return []OutgoingMessage{{
			Type: TypeMenu,
			Content: MenuContent{
				Categories:    menu.Categories(),
				CategoryOrder: menu.CategoryNames(),
			},
			Message: "Enter item number to add to order. Type 97 to view current order.",
		}}, nil

	case KindShowOrder:
		return d.showOrder(ctx, deviceID)

	case KindShowHistory:
		entries, err := d.orders.History(ctx, deviceID, hist.From, hist.To)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return []OutgoingMessage{{
				Type:    TypeHistory,
				Content: []order.HistoryEntry{},
				Message: "You haven't placed any orders yet. Type 1 to view the menu and place your first order!",
			}}, nil
		}
		return []OutgoingMessage{{Type: TypeHistory, Content: entries}}, nil

	case KindCheckout:
		rec, err := d.payments.Initialize(ctx, deviceID)
		if err != nil {
			return nil, err
		}
		return []OutgoingMessage{{
			Type:    TypePayment,
			Content: rec,
			Message: "Great! Let's proceed with your payment.",
		}}, nil

	case KindCancel:
		ok, err := d.orders.Cancel(ctx, deviceID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []OutgoingMessage{{
				Type:    TypeSuccess,
				Content: "You don't have any active order to cancel.",
			}}, nil
		}
		return []OutgoingMessage{{
			Type:    TypeSuccess,
			Content: "Order cancelled successfully",
			Message: "Type 1 to view the menu and start a new order.",
		}}, nil

	case KindAddItem:
		o, err := d.orders.AddItem(ctx, deviceID, cmd.MenuItemID, 1)
		if err != nil {
			return nil, err
		}
		added, _ := menu.ByID(cmd.MenuItemID)
		d.log.Info("item added",
			zap.String("device_id", deviceID),
			zap.Int("menu_item_id", cmd.MenuItemID),
			zap.String("order_id", o.ID))
		return []OutgoingMessage{{
			Type:    TypeSuccess,
			Content: fmt.Sprintf("Added %s (%s) to your order.", added.Name, menu.FormatNaira(added.Price)),
			Message: "Type 97 to view your current order or continue adding items.",
		}}, nil
	}
	return nil, ErrInvalidInput
}

func (d *Dispatcher) showOrder(ctx context.Context, deviceID string) ([]OutgoingMessage, error) {
	o, err := d.orders.CurrentOrder(ctx, deviceID)
	if errors.Is(err, order.ErrNotFound) || (err == nil && len(o.Items) == 0) {
		return []OutgoingMessage{{
			Type:    TypeCurrentOrder,
			Content: nil,
			Message: "No current order. Type 1 to view the menu.",
		}}, nil
	}
	if err != nil {
		return nil, err
	}
	return []OutgoingMessage{{
		Type:    TypeCurrentOrder,
		Content: OrderView{Order: o, Summary: d.orders.Summarize(o)},
	}}, nil
}
