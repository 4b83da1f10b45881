package domain

// AuditRepository persists the audit event chain.
type AuditRepository interface {
	RecordEvent(event Event) error
	LoadEvents() ([]Event, error)
}
