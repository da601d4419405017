package models

import "time"

// LoginSession records one login. Rows are append-only; repeated logins from
// the same device create new rows rather than updating old ones.
type LoginSession struct {
	ID                string
	UserID            string
	IPAddress         string
	UserAgent         string
	DeviceFingerprint string
	Location          string
	BrowserInfo       string
	DeviceInfo        string
	IsNewDevice       bool
	LoginTime         time.Time
	LastActivity      time.Time
	IsActive          bool
}
