package domain

import (
	"fmt"
	"strings"
)

// Favorite is a bookmarked place. Name is the natural key.
type Favorite struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Rating    float64 `json:"rating"`
}

func (f Favorite) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: favorite name is required", ErrInvalid)
	}
	if f.Rating < 0 || f.Rating > 5 {
		return fmt.Errorf("%w: favorite rating must be between 0 and 5", ErrInvalid)
	}
	return nil
}
