package model

import "strings"

// User is the typed view of an apim_users document.
type User struct {
	ID          string
	Firstname   string
	Lastname    string
	DisplayName string
	Email       string
	SourceID    string
	Username    string
}

func UserFromDocument(doc Document) User {
	return User{
		ID:          IDString(doc["_id"]),
		Firstname:   doc.Str("firstname"),
		Lastname:    doc.Str("lastname"),
		DisplayName: doc.Str("displayName"),
		Email:       doc.Str("email"),
		SourceID:    doc.Str("sourceId"),
		Username:    doc.Str("username"),
	}
}

// Name derives a display name: full name, then displayName, email, sourceId.
// Returns "" when none is set; callers fall back to the raw id.
func (u User) Name() string {
	if full := strings.TrimSpace(u.Firstname + " " + u.Lastname); full != "" {
		return full
	}
	for _, candidate := range []string{u.DisplayName, u.Email, u.SourceID} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// LoginAliases are the non-empty login names an audit row may carry instead of the id.
func (u User) LoginAliases() []string {
	out := make([]string, 0, 2)
	if u.SourceID != "" {
		out = append(out, u.SourceID)
	}
	if u.Username != "" {
		out = append(out, u.Username)
	}
	return out
}

// UserSearchFields are matched by the actor filter.
var UserSearchFields = []string{"firstname", "lastname", "displayName", "email", "sourceId", "username"}

// UserListFields are matched by the users directory search.
var UserListFields = []string{"firstname", "lastname", "email", "sourceId"}

// EntitySearchFields are matched by the API and application searches.
var EntitySearchFields = []string{"name", "description"}

// ownerKeys are checked in priority order; the first non-empty id wins.
var ownerKeys = []string{"primaryOwner", "owner", "createdBy"}

// OwnerID extracts the owner user id of an application document. The owner
// can be a bare id or an object carrying id, _id or userId.
func OwnerID(app Document) string {
	for _, key := range ownerKeys {
		if id := ownerRef(app[key]); id != "" {
			return id
		}
	}
	return ""
}

func ownerRef(v any) string {
	switch ref := v.(type) {
	case nil:
		return ""
	case string:
		return ref
	case map[string]any:
		return nestedID(ref)
	case Document:
		return nestedID(ref)
	default:
		return ""
	}
}

func nestedID(ref map[string]any) string {
	for _, key := range []string{"id", "_id", "userId"} {
		if id := IDString(ref[key]); id != "" {
			return id
		}
	}
	return ""
}
