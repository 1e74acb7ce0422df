package nats

import (
	"time"

	"github.com/xnetlabs/burnwatch/service/db"
)

// BurnEventMsg represents a burn event published to NATS.
// This is published to the subject "burns.{token}" in JetStream whenever the
// reconciler inserts a previously unseen event.
type BurnEventMsg struct {
	Signature   string    `json:"signature"`
	Timestamp   time.Time `json:"timestamp"`
	Action      string    `json:"action"`
	FromAddress *string   `json:"from_address,omitempty"`
	ToAddress   *string   `json:"to_address,omitempty"`
	Amount      string    `json:"amount"`
	Token       string    `json:"token"`
	ScrapeTime  time.Time `json:"scrape_time"`
	PublishedAt time.Time `json:"published_at"`
}

// FromDBBurnEvent converts a persisted burn event to a message for publishing.
func FromDBBurnEvent(event *db.BurnEvent) *BurnEventMsg {
	return &BurnEventMsg{
		Signature:   event.Signature,
		Timestamp:   event.Timestamp,
		Action:      event.Action,
		FromAddress: event.FromAddress,
		ToAddress:   event.ToAddress,
		Amount:      event.Amount,
		Token:       event.Token,
		ScrapeTime:  event.ScrapeTime,
		PublishedAt: time.Now().UTC(),
	}
}
