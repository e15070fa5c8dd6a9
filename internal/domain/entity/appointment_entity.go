package entity

import "time"

// Appointment types. The enumeration is closed; anything else is rejected
// at the handler boundary.
const (
	TypeFreeIntro = "free_intro"
	TypeSession   = "session"
)

// Appointment statuses. An appointment starts as booked and may transition
// once to cancelled; it never reverts.
const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
)

// Appointment is the only durable entity the booking core manipulates.
// All fields except Status are immutable after creation.
type Appointment struct {
	ID        string
	UserID    string
	Type      string
	StartsAt  time.Time
	Status    string
	CreatedAt time.Time
}

// ValidType reports whether t is a member of the closed type enumeration.
func ValidType(t string) bool {
	return t == TypeFreeIntro || t == TypeSession
}
