package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrAppointmentNotFound   = errors.New("appointment not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrParticipationNotFound = errors.New("participation not found")
	ErrDuplicateUser         = errors.New("user with this username or phone number already exists")
	ErrDuplicateEvent        = errors.New("event with this title already exists")
	ErrDuplicateParticipant  = errors.New("user already participates in this event")
)

// UserRepository defines access to persisted user accounts. The store owns
// concurrency control: Upsert is a single atomic operation keyed by the
// unique username.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// Upsert creates the account on first login and refreshes the mutable
	// profile fields on subsequent logins. The returned user carries the
	// persisted ID.
	Upsert(ctx context.Context, user *User) (*User, error)
	// TouchLastLogin records a successful authentication on the account.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	// SetPhoneNumber stores a validated phone number, unique per account.
	SetPhoneNumber(ctx context.Context, id, phone string) error
	List(ctx context.Context, pageToken string, pageSize int) ([]*User, string, error)
}

// AppointmentRepository defines access to persisted appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id string) error
}

// EventRepository defines access to events and their participations.
type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, pageToken string, pageSize int) ([]*Event, string, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id string) error

	AddParticipation(ctx context.Context, p *Participation) error
	RemoveParticipation(ctx context.Context, eventID, userID string) error
	ListParticipations(ctx context.Context, eventID string) ([]*Participation, error)
}
