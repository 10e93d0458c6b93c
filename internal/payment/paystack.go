// Package payment bridges a pending order to the Paystack gateway and
// reconciles the asynchronous confirmation back onto it.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Gateway is the remote payment boundary. Amounts cross it in the minor
// currency unit (kobo).
type Gateway interface {
	Initialize(ctx context.Context, amountMinor int64, deviceID, callbackURL string) (*InitResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

type InitResult struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
}

type VerifyResult struct {
	Status   string `json:"status"`
	DeviceID string `json:"device_id"`
}

// Client talks to the Paystack REST API.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Secret  string
}

func NewClient(baseURL, secret string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		BaseURL: baseURL,
		Secret:  secret,
	}
}

type initRequest struct {
	Amount      int64             `json:"amount"`
	CallbackURL string            `json:"callback_url"`
	Metadata    map[string]string `json:"metadata"`
}

type initResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Reference        string `json:"reference"`
		AuthorizationURL string `json:"authorization_url"`
	} `json:"data"`
}

func (c *Client) Initialize(ctx context.Context, amountMinor int64, deviceID, callbackURL string) (*InitResult, error) {
	body, err := json.Marshal(initRequest{
		Amount:      amountMinor,
		CallbackURL: callbackURL,
		Metadata:    map[string]string{"device_id": deviceID},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Secret)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway initialize: %s", res.Status)
	}
	var out initResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	if !out.Status || out.Data.Reference == "" {
		return nil, fmt.Errorf("gateway initialize rejected")
	}
	return &InitResult{
		Reference:        out.Data.Reference,
		AuthorizationURL: out.Data.AuthorizationURL,
	}, nil
}

type verifyResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Status   string `json:"status"`
		Metadata struct {
			DeviceID string `json:"device_id"`
		} `json:"metadata"`
	} `json:"data"`
}

func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Secret)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway verify: %s", res.Status)
	}
	var out verifyResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &VerifyResult{
		Status:   out.Data.Status,
		DeviceID: out.Data.Metadata.DeviceID,
	}, nil
}
