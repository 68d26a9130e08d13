package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionImportMessage carries one external transaction row into the
// import pipeline. ImportID is the idempotency key: a replayed message with
// an already-seen ImportID is acknowledged without creating anything.
type TransactionImportMessage struct {
	MessageID string    `json:"message_id"`
	ImportID  string    `json:"import_id"`
	Account   string    `json:"account"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Amount    string    `json:"amount"`
	Payee     string    `json:"payee"`
	Category  string    `json:"category"`
	Statement string    `json:"statement"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionImportMessage(importID, account, date, amount, payee, category, statement string) *TransactionImportMessage {
	return &TransactionImportMessage{
		MessageID: uuid.NewString(),
		ImportID:  importID,
		Account:   account,
		Date:      date,
		Amount:    amount,
		Payee:     payee,
		Category:  category,
		Statement: statement,
		Timestamp: time.Now(),
	}
}

func (m *TransactionImportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionImportMessageFromJSON(data []byte) (*TransactionImportMessage, error) {
	var msg TransactionImportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
