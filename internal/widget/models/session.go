package models

import (
	"bytes"
	"encoding/json"
)

// Session is the externally written current-user record. It is only ever
// read by the widget. A missing id means guest.
type Session struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UserID returns the authenticated id, or "" for guests and nil sessions.
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.ID
}

// UnmarshalJSON accepts numeric ids as well as strings; auth backends differ.
func (s *Session) UnmarshalJSON(b []byte) error {
	var aux struct {
		ID    json.RawMessage `json:"id"`
		Name  string          `json:"name"`
		Email string          `json:"email"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*s = Session{Name: aux.Name, Email: aux.Email}

	raw := bytes.TrimSpace(aux.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		return json.Unmarshal(raw, &s.ID)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	s.ID = n.String()
	return nil
}
