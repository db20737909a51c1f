package notifier

import (
	"fmt"
	"strings"
)

// BuildRaw renders msg as a basic HTML MIME message sent from source.
func BuildRaw(source string, msg Message) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("source email is required")
	}
	if strings.TrimSpace(msg.Recipient) == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if strings.ContainsAny(msg.Subject, "\r\n") || strings.ContainsAny(msg.Recipient, "\r\n") {
		return nil, fmt.Errorf("headers contain invalid characters")
	}

	var b strings.Builder
	b.WriteString("From: ")
	b.WriteString(source)
	b.WriteString("\r\n")
	b.WriteString("To: ")
	b.WriteString(msg.Recipient)
	b.WriteString("\r\n")
	b.WriteString("Subject: ")
	b.WriteString(msg.Subject)
	b.WriteString("\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 7bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Content)

	return []byte(b.String()), nil
}
