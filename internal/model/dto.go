package model

import "encoding/json"

// PatchValue is a tri-state optional: absent, present and null, or present with a value.
type PatchValue struct {
	Present bool
	Value   any
}

// PatchOperation is one decoded change of an audit patch.
type PatchOperation struct {
	Operation string
	Path      string
	From      string // omitted when empty
	Value     PatchValue
}

func (p PatchOperation) MarshalJSON() ([]byte, error) {
	if p.Value.Present {
		return json.Marshal(struct {
			Operation string `json:"operation"`
			Path      string `json:"path"`
			From      string `json:"from,omitempty"`
			Value     any    `json:"value"`
		}{p.Operation, p.Path, p.From, p.Value.Value})
	}
	return json.Marshal(struct {
		Operation string `json:"operation"`
		Path      string `json:"path"`
		From      string `json:"from,omitempty"`
	}{p.Operation, p.Path, p.From})
}

// EnrichedAudit is an audit record with resolved names layered on top of the
// stored fields. Derived keys win over stored keys of the same name.
type EnrichedAudit struct {
	Record         AuditRecord
	UserName       string
	UserEmail      *string
	TargetUserName *string
	ReferenceName  *string
	ParsedPatch    []PatchOperation
}

func (e EnrichedAudit) MarshalJSON() ([]byte, error) {
	out := e.Record.Raw.Clone()
	out["userName"] = e.UserName
	out["userEmail"] = e.UserEmail
	out["targetUserName"] = e.TargetUserName
	out["referenceName"] = e.ReferenceName
	if e.ParsedPatch == nil {
		out["parsedPatch"] = nil
	} else {
		out["parsedPatch"] = e.ParsedPatch
	}
	return json.Marshal(map[string]any(out))
}

type AuditPage struct {
	Total  int64           `json:"total"`
	Audits []EnrichedAudit `json:"audits"`
	Skip   int64           `json:"skip"`
	Limit  int64           `json:"limit"`
}

// GroupCount is one row of a group-and-count query. Key is nil for documents
// missing the grouped field.
type GroupCount struct {
	Key   any   `json:"_id"`
	Count int64 `json:"count"`
}

type TypeCount struct {
	Type  any   `json:"type"`
	Count int64 `json:"count"`
}

type UserCount struct {
	User  any    `json:"user"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type EventCount struct {
	Event any   `json:"event"`
	Count int64 `json:"count"`
}

type Stats struct {
	Total           int64        `json:"total"`
	Last24h         int64        `json:"last24h"`
	Last7d          int64        `json:"last7d"`
	ByReferenceType []TypeCount  `json:"byReferenceType"`
	TopUsers        []UserCount  `json:"topUsers"`
	TopEvents       []EventCount `json:"topEvents"`
}

// Ranked is a top-N entry with its resolved display name.
type Ranked struct {
	ID    any    `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type Analytics struct {
	TopAPIs           []Ranked     `json:"topAPIs"`
	TopUsers          []Ranked     `json:"topUsers"`
	EventDistribution []GroupCount `json:"eventDistribution"`
}

type Alerts struct {
	Alerts []EnrichedAudit `json:"alerts"`
	Total  int             `json:"total"`
}

// EnrichedApplication is an application document with its resolved owner.
type EnrichedApplication struct {
	Doc       Document
	OwnerID   string
	OwnerName string
}

func (a EnrichedApplication) MarshalJSON() ([]byte, error) {
	out := a.Doc.Clone()
	out["ownerName"] = a.OwnerName
	if a.OwnerID == "" {
		out["ownerId"] = nil
	} else {
		out["ownerId"] = a.OwnerID
	}
	return json.Marshal(map[string]any(out))
}

// Page is a generic directory listing; Items is rendered under Key.
type Page[T any] struct {
	Key   string
	Total int64
	Items []T
	Skip  int64
	Limit int64
}

func (p Page[T]) MarshalJSON() ([]byte, error) {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return json.Marshal(map[string]any{
		"total": p.Total,
		p.Key:   items,
		"skip":  p.Skip,
		"limit": p.Limit,
	})
}
