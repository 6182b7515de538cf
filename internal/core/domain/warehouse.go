package domain

import (
	"strings"
	"time"
)

type Warehouse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (w Warehouse) Validate() error {
	switch {
	case strings.TrimSpace(w.Name) == "":
		return InvalidArgumentf("Warehouse name is required")
	case len(w.Name) > 100:
		return InvalidArgumentf("Warehouse name cannot exceed 100 characters")
	case strings.TrimSpace(w.Location) == "":
		return InvalidArgumentf("Location is required")
	case len(w.Location) > 200:
		return InvalidArgumentf("Location cannot exceed 200 characters")
	}
	return nil
}

func (w Warehouse) Matches(term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(w.Name), term) ||
		strings.Contains(strings.ToLower(w.Location), term)
}
