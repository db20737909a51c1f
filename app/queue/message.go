package queue

import "github.com/vibast-solutions/ms-go-reservations/app/service"

const StreamName = "reservations:claims"
const ConsumerGroup = "claim-consumers"

type ClaimMessage struct {
	RequestID   string
	Kind        string
	StudentID   string
	CourseID    string
	Seat        string
	NotifyEmail string
	Event       string
	Pool        string
	UserID      string
}

func (m ClaimMessage) values() map[string]interface{} {
	return map[string]interface{}{
		"request_id":   m.RequestID,
		"kind":         m.Kind,
		"student_id":   m.StudentID,
		"course_id":    m.CourseID,
		"seat":         m.Seat,
		"notify_email": m.NotifyEmail,
		"event":        m.Event,
		"pool":         m.Pool,
		"user_id":      m.UserID,
	}
}

func claimFromValues(values map[string]interface{}) service.Claim {
	get := func(key string) string {
		value, _ := values[key].(string)
		return value
	}
	return service.Claim{
		RequestID:   get("request_id"),
		Kind:        get("kind"),
		StudentID:   get("student_id"),
		CourseID:    get("course_id"),
		Seat:        get("seat"),
		NotifyEmail: get("notify_email"),
		Event:       get("event"),
		Pool:        get("pool"),
		UserID:      get("user_id"),
	}
}
