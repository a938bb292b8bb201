// Package models defines the persistent domain entities for the event registry:
// participant registrations and their paired leaderboard entries.
package models

import "time"

// Registration represents one registered participant. The sapId, email, and
// transactionId values are globally unique; the corresponding database
// constraints are the source of truth for that invariant.
type Registration struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	SapID                 string    `json:"sapId"`
	Email                 string    `json:"email"`
	Year                  string    `json:"year"`
	Course                string    `json:"course"`
	Section               string    `json:"section"`
	TransactionID         string    `json:"transactionId"`
	PaymentScreenshotPath string    `json:"paymentScreenshotPath"`

	// Bcrypt copies of the uniqueness fields, written at registration time as
	// audit redundancy. No lookup path reads them; queries always go through
	// the plaintext columns.
	HashedSapID         string `json:"-"`
	HashedEmail         string `json:"-"`
	HashedTransactionID string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
