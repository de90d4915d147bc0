package domain

import (
	"time"
)

// Reservation is a claim registered against a currently unavailable book.
// Reservations carry no queue position: multiple reservations on the same
// book are independent records with no precedence between them.
//
// Active and Notified are independent flags. A reservation is created
// active and un-notified, may be marked notified when the holder is told
// the book came back, and is deactivated (never deleted) on cancellation.
// A cancelled reservation keeps whatever Notified value it had.
type Reservation struct {
	// ID is the unique identifier for the reservation (auto-generated).
	ID int64 `json:"id"`

	// BookID references the reserved book.
	BookID int64 `json:"bookId"`

	// UserID references the reserving user.
	UserID int64 `json:"userId"`

	// ReservationDate is the calendar day the reservation was placed.
	ReservationDate time.Time `json:"reservationDate"`

	// Active is false once the reservation has been cancelled.
	Active bool `json:"active"`

	// Notified is true once the holder has been told the book is back.
	// Notification neither consumes nor expires the reservation.
	Notified bool `json:"notified"`
}
