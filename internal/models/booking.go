package models

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusDeclined  BookingStatus = "declined"
)

// Booking is an inquiry record only; scheduling happens outside this
// service.
type Booking struct {
	ID          string
	Email       string
	Name        string
	ServiceType string
	Message     string
	PreferredAt *time.Time
	Status      BookingStatus
	CreatedAt   time.Time
}
