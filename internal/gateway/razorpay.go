package gateway

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Razorpay implements Gateway on top of the official SDK.
type Razorpay struct {
	client *razorpay.Client
	keyID  string
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{
		client: razorpay.NewClient(keyID, keySecret),
		keyID:  keyID,
	}
}

func (r *Razorpay) Key() string {
	return r.keyID
}

// CreateOrder creates a provider order tagged with the booking id as receipt.
func (r *Razorpay) CreateOrder(_ context.Context, req OrderRequest) (*Order, error) {
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	data := map[string]interface{}{
		"amount":   MinorUnits(req.Amount),
		"currency": currency,
		"receipt":  req.BookingID,
	}
	if len(req.Notes) > 0 {
		notes := map[string]interface{}{}
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	body, err := r.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay order create: missing order id in response")
	}

	return &Order{
		ID:       id,
		Amount:   MinorUnits(req.Amount),
		Currency: currency,
		Receipt:  req.BookingID,
	}, nil
}
