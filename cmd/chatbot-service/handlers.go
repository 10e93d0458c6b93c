package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tobiadex/chopchat/internal/chat"
	"github.com/tobiadex/chopchat/internal/order"
	"github.com/tobiadex/chopchat/internal/payment"
	"github.com/tobiadex/chopchat/internal/session"
)

// ChatRequest is one inbound chat message.
type ChatRequest struct {
	Message  string `json:"message" binding:"required" example:"97"`
	DeviceID string `json:"deviceId" binding:"required" example:"0b26c7f2-7d58-4b17-9b0e-2f1a6f6d9a41"`
}

func errEnvelope(content string) chat.OutgoingMessage {
	return chat.OutgoingMessage{Type: chat.TypeError, Content: content}
}

// parseDateQuery accepts a bare date or a full RFC3339 timestamp. A bare
// endDate is widened to the end of the named day so the range is inclusive.
func parseDateQuery(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Second)
	}
	return &t, nil
}

// chatbotHandler establishes the device's session, then interprets and
// dispatches the message. The optional startDate/endDate query params bound
// the history command by creation date. Failure details stay in the logs;
// the client only ever sees the generic envelopes below.
func chatbotHandler(d *chat.Dispatcher, sessions *session.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errEnvelope("message and deviceId are required"))
			return
		}
		from, err := parseDateQuery(c.Query("startDate"), false)
		if err != nil {
			c.JSON(http.StatusBadRequest, errEnvelope("startDate must be a YYYY-MM-DD date or an RFC3339 timestamp"))
			return
		}
		to, err := parseDateQuery(c.Query("endDate"), true)
		if err != nil {
			c.JSON(http.StatusBadRequest, errEnvelope("endDate must be a YYYY-MM-DD date or an RFC3339 timestamp"))
			return
		}

		if _, err := sessions.Init(c.Request.Context(), req.DeviceID); err != nil {
			log.Error("session init failed", zap.String("device_id", req.DeviceID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, errEnvelope("An error occurred processing your request"))
			return
		}

		msgs, err := d.Dispatch(c.Request.Context(), req.Message, req.DeviceID, chat.HistoryRange{From: from, To: to})
		if err != nil {
			status, msg := mapDispatchError(err)
			if status == http.StatusInternalServerError {
				log.Error("dispatch failed",
					zap.String("device_id", req.DeviceID), zap.String("message", req.Message), zap.Error(err))
			}
			c.JSON(status, errEnvelope(msg))
			return
		}

		if len(msgs) == 1 {
			c.JSON(http.StatusOK, msgs[0])
			return
		}
		c.JSON(http.StatusOK, msgs)
	}
}

func mapDispatchError(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrInvalidInput):
		return http.StatusBadRequest, chat.InvalidCommandHelp
	case errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound, "No pending order found"
	case errors.Is(err, order.ErrEmptyOrder):
		return http.StatusBadRequest, "Your order is empty. Type 1 to view the menu."
	case errors.Is(err, payment.ErrInit):
		return http.StatusBadGateway, "Sorry, we couldn't process your payment right now. Please try again later."
	default:
		return http.StatusInternalServerError, "An error occurred processing your request"
	}
}

// paymentCallbackHandler receives the gateway's redirect after checkout,
// verifies the reference and reconciles the order, then sends the buyer
// back to the storefront. The redirect never leaks why a payment failed.
func paymentCallbackHandler(p *payment.Orchestrator, frontendURL string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := c.Query("reference")
		if ref == "" {
			c.Redirect(http.StatusFound, frontendURL+"/payment/error")
			return
		}
		ok, err := p.Reconcile(c.Request.Context(), ref)
		if err != nil {
			log.Error("reconcile failed", zap.String("reference", ref), zap.Error(err))
		}
		if err != nil || !ok {
			c.Redirect(http.StatusFound, frontendURL+"/payment/error")
			return
		}
		c.Redirect(http.StatusFound, frontendURL+"/payment/success")
	}
}
