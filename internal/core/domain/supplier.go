package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type SupplierStatus string

const (
	SupplierStatusActive    SupplierStatus = "ACTIVE"
	SupplierStatusInactive  SupplierStatus = "INACTIVE"
	SupplierStatusSuspended SupplierStatus = "SUSPENDED"
)

var SupplierStatuses = []SupplierStatus{
	SupplierStatusActive,
	SupplierStatusInactive,
	SupplierStatusSuspended,
}

func ParseSupplierStatus(s string) (SupplierStatus, error) {
	switch st := SupplierStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case SupplierStatusActive, SupplierStatusInactive, SupplierStatusSuspended:
		return st, nil
	}
	return "", InvalidArgumentf("Invalid supplier status: %s", s)
}

func (s *SupplierStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return InvalidArgumentf("Invalid supplier status")
	}
	st, err := ParseSupplierStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

type Supplier struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email,omitempty"`
	Phone         string         `json:"phone,omitempty"`
	Address       string         `json:"address,omitempty"`
	ContactPerson string         `json:"contactPerson,omitempty"`
	Status        SupplierStatus `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (s Supplier) IsActive() bool {
	return s.Status == SupplierStatusActive
}

func (s *Supplier) SetStatus(status SupplierStatus, now time.Time) {
	s.Status = status
	s.UpdatedAt = now
}

func (s Supplier) Validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return InvalidArgumentf("Supplier name is required")
	case len(s.Name) > 100:
		return InvalidArgumentf("Supplier name cannot exceed 100 characters")
	case s.Email != "" && !strings.Contains(s.Email, "@"):
		return InvalidArgumentf("Email should be valid")
	case len(s.Email) > 255:
		return InvalidArgumentf("Email cannot exceed 255 characters")
	case len(s.Phone) > 50:
		return InvalidArgumentf("Phone cannot exceed 50 characters")
	case len(s.Address) > 255:
		return InvalidArgumentf("Address cannot exceed 255 characters")
	case len(s.ContactPerson) > 100:
		return InvalidArgumentf("Contact person cannot exceed 100 characters")
	}
	if _, err := ParseSupplierStatus(string(s.Status)); err != nil {
		return err
	}
	return nil
}

func (s Supplier) Matches(term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(s.Name), term) ||
		strings.Contains(strings.ToLower(s.Email), term) ||
		strings.Contains(strings.ToLower(s.ContactPerson), term) ||
		strings.Contains(strings.ToLower(s.Address), term)
}
