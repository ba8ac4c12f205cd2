package domain

import (
	"fmt"
	"strings"
)

// Review is a user-authored rating of a place. ID and Date are fixed at creation.
type Review struct {
	ID        string `json:"id"`
	PlaceName string `json:"placeName"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	Date      string `json:"date"`
}

// ReviewInput carries the user-editable fields of a new review.
type ReviewInput struct {
	PlaceName string `json:"placeName"`
	Comment   string `json:"comment"`
	Rating    int    `json:"rating"`
}

func (in ReviewInput) Validate() error {
	if strings.TrimSpace(in.PlaceName) == "" {
		return fmt.Errorf("%w: place name is required", ErrInvalid)
	}
	if strings.TrimSpace(in.Comment) == "" {
		return fmt.Errorf("%w: comment is required", ErrInvalid)
	}
	return validRating(in.Rating)
}

// ReviewPatch is a partial edit; nil fields are left untouched.
type ReviewPatch struct {
	PlaceName *string `json:"placeName,omitempty"`
	Comment   *string `json:"comment,omitempty"`
	Rating    *int    `json:"rating,omitempty"`
}

func (p ReviewPatch) Validate() error {
	if p.PlaceName != nil && strings.TrimSpace(*p.PlaceName) == "" {
		return fmt.Errorf("%w: place name cannot be blank", ErrInvalid)
	}
	if p.Comment != nil && strings.TrimSpace(*p.Comment) == "" {
		return fmt.Errorf("%w: comment cannot be blank", ErrInvalid)
	}
	if p.Rating != nil {
		return validRating(*p.Rating)
	}
	return nil
}

// Apply merges the patch over r, leaving ID and Date as they are.
func (p ReviewPatch) Apply(r Review) Review {
	if p.PlaceName != nil {
		r.PlaceName = *p.PlaceName
	}
	if p.Comment != nil {
		r.Comment = *p.Comment
	}
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	return r
}

func validRating(n int) error {
	if n < 1 || n > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalid)
	}
	return nil
}
