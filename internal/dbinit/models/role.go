// Package models holds the identity records the bootstrap job reads and
// writes.
package models

// Role is a named authorization group.
type Role struct {
	ID               string
	Name             string
	NormalizedName   string
	ConcurrencyStamp string
}
