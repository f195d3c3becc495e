package models

import "time"

// Identity kinds tracked by the abuse ledger
const (
	IdentityIP    = "ip"
	IdentityEmail = "email"
)

// BlockStatus describes the block state of one IP address, as reported
// to administrative tooling. Counters never leak into public responses.
type BlockStatus struct {
	IP                 string     `json:"ip"`
	PermanentlyBlocked bool       `json:"permanently_blocked"`
	TemporarilyBlocked bool       `json:"temporarily_blocked"`
	BlockedUntil       *time.Time `json:"blocked_until,omitempty"`
	StrikeCount        int        `json:"strike_count"`
}
