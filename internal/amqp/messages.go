package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"juku/internal/core"
)

// Actions carried by PaymentChangedMessage
const (
	ActionRecorded      = "recorded"
	ActionMethodToggled = "method_toggled"
	ActionDeleted       = "deleted"
)

// PaymentChangedMessage announces that the reconciliation state of one billed
// item changed. Consumers reload what they need from the database.
type PaymentChangedMessage struct {
	ID          uuid.UUID        `json:"id"`
	BillingType core.BillingType `json:"billing_type"`
	RefID       int64            `json:"ref_id"`
	Year        int              `json:"year"`
	Month       int              `json:"month"`
	Action      string           `json:"action"`
	Timestamp   time.Time        `json:"timestamp"`
}

// NewPaymentChangedMessage creates a message with a fresh ID
func NewPaymentChangedMessage(key core.ItemKey, action string) *PaymentChangedMessage {
	return &PaymentChangedMessage{
		ID:          uuid.New(),
		BillingType: key.Type,
		RefID:       key.RefID,
		Year:        key.Period.Year,
		Month:       key.Period.Month,
		Action:      action,
		Timestamp:   time.Now(),
	}
}

// Key returns the item the message is about
func (m *PaymentChangedMessage) Key() core.ItemKey {
	return core.ItemKey{Type: m.BillingType, RefID: m.RefID, Period: core.NewPeriod(m.Year, m.Month)}
}

// Period returns the billing period the message is about
func (m *PaymentChangedMessage) Period() core.Period {
	return core.NewPeriod(m.Year, m.Month)
}

// ToJSON converts the message to JSON bytes
func (m *PaymentChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentChangedMessageFromJSON decodes and validates a message.
func PaymentChangedMessageFromJSON(data []byte) (*PaymentChangedMessage, error) {
	var msg PaymentChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Key().Validate(); err != nil {
		return nil, fmt.Errorf("invalid message key: %w", err)
	}
	switch msg.Action {
	case ActionRecorded, ActionMethodToggled, ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
