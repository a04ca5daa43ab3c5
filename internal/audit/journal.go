// Package audit records mutating ticket actions in the store's journal.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/ticgit/internal/models"
)

// Sink persists journal entries. *store.Store satisfies it.
type Sink interface {
	WriteJournal(action, inputsHash, ticketID, details string) (*models.JournalEntry, error)
}

// Journal writes an entry for every state-mutating action.
type Journal struct {
	sink Sink
}

// NewJournal creates a Journal writing to sink.
func NewJournal(sink Sink) *Journal {
	return &Journal{sink: sink}
}

// Record writes a journal entry. inputs are hashed, not stored.
func (j *Journal) Record(action string, inputs interface{}, ticketID, details string) (*models.JournalEntry, error) {
	return j.sink.WriteJournal(action, HashInputs(inputs), ticketID, details)
}

// HashInputs returns the hex SHA-256 of the JSON encoding of inputs.
func HashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
