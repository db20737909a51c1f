package entity

const (
	ClaimKindEnrollment = "enrollment"
	ClaimKindTicket     = "ticket"
	ClaimKindEnvelope   = "envelope"
)

const (
	ClaimStatusPending  = "pending"
	ClaimStatusSuccess  = "success"
	ClaimStatusRejected = "rejected"
	ClaimStatusFailed   = "failed"
)

// ClaimResult is the outcome of an asynchronous claim, looked up by request ID.
type ClaimResult struct {
	RequestID string
	Kind      string
	Status    string
	Detail    string
}
