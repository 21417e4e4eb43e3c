// Package domain contains entities without transport logic, just meta-data.
package domain

// UserID is the logical account identity, supplied by the client at connect
// time. The relay trusts it as given; the account registry owns its meaning.
type UserID string
