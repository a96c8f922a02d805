package amqp

import (
	"encoding/json"
	"time"
)

// LedgerSyncMessage announces that a synchronization pass posted new
// recurring transactions into a book. Consumers reload the book for details.
type LedgerSyncMessage struct {
	Book         string    `json:"book"`
	Posted       int       `json:"posted"`
	BalanceCents int64     `json:"balance_cents"`
	SyncedOn     string    `json:"synced_on"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewLedgerSyncMessage(book string, posted int, balanceCents int64, syncedOn string) *LedgerSyncMessage {
	return &LedgerSyncMessage{
		Book:         book,
		Posted:       posted,
		BalanceCents: balanceCents,
		SyncedOn:     syncedOn,
		Timestamp:    time.Now(),
	}
}

func (m *LedgerSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSyncMessageFromJSON(data []byte) (*LedgerSyncMessage, error) {
	var msg LedgerSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
