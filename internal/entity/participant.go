package entity

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a registered event participant, the persisted form of one
// reconciled identity document plus whatever the operator corrected by
// hand. BirthDate stays in its canonical YYYY-MM-DD string form.
type Participant struct {
	ID             uuid.UUID `json:"id"`
	Surname        string    `json:"surname"`
	GivenName      string    `json:"given_name"`
	BirthDate      string    `json:"birth_date"`
	Sex            string    `json:"sex"`
	Country        string    `json:"country"`
	City           string    `json:"city"`
	DocumentNumber string    `json:"document_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
