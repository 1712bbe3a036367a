package amqp

import (
	"encoding/json"
	"time"
)

// TransactionExportMessage is published whenever a transaction is recorded
// and must be mirrored to the external ledger.
type TransactionExportMessage struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func (m *TransactionExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionExportMessageFromJSON(data []byte) (*TransactionExportMessage, error) {
	var msg TransactionExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
