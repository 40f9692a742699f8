package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"donations/internal/core"
)

// DonationCreatedMessage carries a full donation record. The log has no
// row ids, so consumers get everything they need from the message itself.
type DonationCreatedMessage struct {
	MessageID   string     `json:"message_id"`
	Name        string     `json:"name"`
	AmountPaise int64      `json:"amount_paise"`
	Purpose     string     `json:"purpose"`
	Location    string     `json:"location"`
	DonatedAt   *time.Time `json:"donated_at,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// NewDonationCreatedMessage builds a message with a fresh id.
func NewDonationCreatedMessage(d core.Donation) *DonationCreatedMessage {
	msg := &DonationCreatedMessage{
		MessageID:   uuid.NewString(),
		Name:        d.Name,
		AmountPaise: d.Amount.Paise,
		Purpose:     string(d.Purpose),
		Location:    d.Location,
		Timestamp:   time.Now(),
	}
	if d.HasDate() {
		at := d.Date
		msg.DonatedAt = &at
	}
	return msg
}

// Donation converts the message back into a domain record.
func (m *DonationCreatedMessage) Donation() (core.Donation, error) {
	p, err := core.ParsePurpose(m.Purpose)
	if err != nil {
		return core.Donation{}, fmt.Errorf("message %s: %w", m.MessageID, err)
	}
	d := core.Donation{
		Name:     m.Name,
		Amount:   core.Money{Paise: m.AmountPaise},
		Purpose:  p,
		Location: m.Location,
	}
	if m.DonatedAt != nil {
		d.Date = *m.DonatedAt
	}
	return d, nil
}

// ToJSON converts the message to JSON bytes
func (m *DonationCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DonationCreatedMessageFromJSON decodes a message body.
func DonationCreatedMessageFromJSON(data []byte) (*DonationCreatedMessage, error) {
	var msg DonationCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
