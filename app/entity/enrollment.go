package entity

import "time"

type Enrollment struct {
	StudentID string
	CourseID  string
	Seat      string
	CreatedAt time.Time
}
