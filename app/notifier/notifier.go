package notifier

import (
	"context"
	"fmt"
)

// Notifier delivers a confirmation message to a single recipient.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

type Message struct {
	Recipient string
	Subject   string
	Content   string
}

// EnrollmentConfirmation builds the message sent after a successful enrollment.
func EnrollmentConfirmation(recipient string, courseTitle string, seat string) Message {
	return Message{
		Recipient: recipient,
		Subject:   fmt.Sprintf("Enrollment confirmed: %s", courseTitle),
		Content:   fmt.Sprintf("<p>You are enrolled in <b>%s</b>, seat %s.</p>", courseTitle, seat),
	}
}
