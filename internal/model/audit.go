package model

import (
	"fmt"
	"time"
)

// Reference types that can be resolved to a display name.
const (
	RefAPI         = "API"
	RefApplication = "APPLICATION"
)

// PropertyUser is the properties key holding the secondary subject of an event.
const PropertyUser = "USER"

// Document is a schemaless record as read from the store. Values are plain Go
// types: string, numbers, bool, time.Time, []any, map[string]any.
type Document map[string]any

// Str returns the string at key, or "" when absent or not a string.
func (d Document) Str(key string) string {
	if s, ok := d[key].(string); ok {
		return s
	}
	return ""
}

// Clone is a shallow copy.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// AuditRecord is the typed view of one apim_audits document. The raw
// document is kept so unknown fields survive into responses.
type AuditRecord struct {
	ID            string
	Event         string
	ReferenceType string
	ReferenceID   string
	User          string            // acting principal
	Properties    map[string]string // may carry USER, the secondary subject
	CreatedAt     time.Time
	Patch         any // JSON text or decoded list; nil when absent
	Raw           Document
}

func AuditRecordFromDocument(doc Document) AuditRecord {
	rec := AuditRecord{
		ID:            IDString(doc["_id"]),
		Event:         doc.Str("event"),
		ReferenceType: doc.Str("referenceType"),
		ReferenceID:   IDString(doc["referenceId"]),
		User:          doc.Str("user"),
		Properties:    map[string]string{},
		Raw:           doc,
	}
	if props, ok := doc["properties"].(map[string]any); ok {
		for k, v := range props {
			if s, ok := v.(string); ok {
				rec.Properties[k] = s
			}
		}
	}
	if t, ok := doc["createdAt"].(time.Time); ok {
		rec.CreatedAt = t
	}
	if p, ok := doc["patch"]; ok && p != nil {
		rec.Patch = p
	}
	return rec
}

// TargetUser is properties.USER, the subject acted upon. It is never the actor.
func (a AuditRecord) TargetUser() string {
	return a.Properties[PropertyUser]
}

// IDString renders identifiers stored as strings or numbers.
func IDString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case fmt.Stringer:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

// CriticalEvents are the events surfaced by the alerts view.
var CriticalEvents = []string{
	"API_DELETED",
	"API_ARCHIVED",
	"API_DEPRECATED",
	"APPLICATION_DELETED",
	"APPLICATION_ARCHIVED",
	"USER_DELETED",
	"USER_LOCKED",
	"MEMBERSHIP_DELETED",
	"PLAN_DELETED",
	"SUBSCRIPTION_CLOSED",
	"GROUP_DELETED",
	"ROLE_DELETED",
}

// IsCritical reports whether event is on the alert allow-list.
func IsCritical(event string) bool {
	for _, e := range CriticalEvents {
		if e == event {
			return true
		}
	}
	return false
}
