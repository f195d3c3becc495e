package models

import "time"

// NewsletterSubscription represents a newsletter subscriber.
// Invariant: IsActive is false if and only if UnsubscribedAt is set.
// Re-subscribing a previously unsubscribed email reactivates the existing
// row instead of creating a duplicate.
type NewsletterSubscription struct {
	ID               string     `db:"id"`
	Email            string     `db:"email"`
	Name             string     `db:"name"`
	IsActive         bool       `db:"is_active"`
	SubscribedAt     time.Time  `db:"subscribed_at"`
	UnsubscribedAt   *time.Time `db:"unsubscribed_at"`
	UnsubscribeToken string     `db:"unsubscribe_token"`
	IPAddress        string     `db:"ip_address"`
}
