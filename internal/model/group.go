package model

import (
	"encoding/json"
	"time"
)

const DefaultStatus = "active"

// GroupMember is one enrollee of a group. Field order is the wire order.
type GroupMember struct {
	MemberID       string            `json:"member_id"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	Email          string            `json:"email"`
	Phone          *string           `json:"phone"`
	DateOfBirth    *string           `json:"date_of_birth"`
	Address        map[string]string `json:"address"`
	EnrollmentDate *string           `json:"enrollment_date"`
	Status         string            `json:"status"` // active|inactive|pending|terminated
}

// GroupDetails is one enrollment group. Field order is the wire order.
type GroupDetails struct {
	GroupID         string         `json:"group_id"`
	GroupName       string         `json:"group_name"`
	GroupType       string         `json:"group_type"` // corporate|individual|family|small_business
	EffectiveDate   string         `json:"effective_date"`
	TerminationDate *string        `json:"termination_date"`
	Status          string         `json:"status"`
	Members         []GroupMember  `json:"members"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Metadata        map[string]any `json:"metadata"`
}

// ToMap renders the group as the untyped record shape accepted by the validator.
func (g GroupDetails) ToMap() (map[string]any, error) {
	if g.Members == nil {
		g.Members = []GroupMember{}
	}
	b, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func StrPtr(s string) *string { return &s }
