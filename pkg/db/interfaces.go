package db

import "context"

// SessionStore defines the session and carry-over operations
type SessionStore interface {
	GetLatestSession(ctx context.Context) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	InsertSession(ctx context.Context, session *Session) error
	GetCarryOver(ctx context.Context, sessionID string) ([]CarryOver, error)
	InsertCarryOver(ctx context.Context, balances []CarryOver) error
}

// RosterStore defines the roster grid operations
type RosterStore interface {
	InsertRoster(ctx context.Context, roster *Roster, cells []RosterCell) error
	GetRoster(ctx context.Context, id string) (*Roster, []RosterCell, error)
	GetLatestRoster(ctx context.Context, kind string) (*Roster, []RosterCell, error)
}

// Database defines the interface for all database operations.
// Both postgres.DB and sqlite.DB implement this interface.
type Database interface {
	SessionStore
	RosterStore
	InsertReplacements(ctx context.Context, replacements []Replacement) error
	GetReplacements(ctx context.Context, rosterID string) ([]Replacement, error)
	InsertMonthlyNorms(ctx context.Context, norms []MonthlyNorm) error
}
