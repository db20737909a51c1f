package entity

// SeatAvailable marks an unassigned seat in a course seat map.
const SeatAvailable = "available"

type Course struct {
	ID             string
	Title          string
	Capacity       int
	AvailableSeats int
}
