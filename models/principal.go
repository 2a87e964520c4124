package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Role is the side of a booking an authenticated principal acts for.
// The zero value is not a valid role.
type Role uint8

const (
	RoleRequester Role = iota + 1
	RoleProvider
)

// ParseRole accepts the text form of a role. "user" is the legacy spelling of requester.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "requester", "user":
		return RoleRequester, nil
	case "provider":
		return RoleProvider, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	return r == RoleRequester || r == RoleProvider
}

func (r Role) String() string {
	switch r {
	case RoleRequester:
		return "requester"
	case RoleProvider:
		return "provider"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Counterpart returns the other side of a booking.
func (r Role) Counterpart() Role {
	switch r {
	case RoleRequester:
		return RoleProvider
	case RoleProvider:
		return RoleRequester
	}
	return 0
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalBSONValue stores roles as their text form so documents stay readable.
func (r Role) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !r.Valid() {
		return 0, nil, fmt.Errorf("cannot marshal invalid role %d", uint8(r))
	}
	return bson.MarshalValue(r.String())
}

func (r *Role) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var s string
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&s); err != nil {
		return fmt.Errorf("decode role: %w", err)
	}
	return r.UnmarshalText([]byte(s))
}

// Principal is an authenticated actor. IDs are only unique within a role.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (p Principal) String() string {
	return p.Role.String() + ":" + p.ID
}

func (p Principal) Valid() bool {
	return p.ID != "" && p.Role.Valid()
}
