package models

// RankedEntry is one row of the ranked leaderboard: a points tally joined with
// its registration. There is at most one entry per registration (unique index
// on registration_id); it is created with zero points in the same transaction
// as the registration itself. Name and SapID are nullable because the join is
// a LEFT JOIN; an orphaned entry (registration deleted out-of-band) must not
// break the whole listing.
type RankedEntry struct {
	RegistrationID *string `db:"registration_id"`
	Name           *string `db:"name"`
	SapID          *string `db:"sap_id"`
	Points         int     `db:"points"`
}
