package handler

import (
	"strings"
	"unicode/utf8"

	dErrors "clanhub/pkg/domain-errors"
)

const maxNameLength = 255

// CreateClanRequest is the HTTP request body for POST /clans.
type CreateClanRequest struct {
	Name   string  `json:"name"`
	Region *string `json:"region"`
}

// Normalize drops a blank region. Name and non-blank regions are stored as
// sent. Implements httputil.Normalizable.
func (r *CreateClanRequest) Normalize() {
	if r.Region != nil && strings.TrimSpace(*r.Region) == "" {
		r.Region = nil
	}
}

// Validate implements httputil.Validatable.
func (r *CreateClanRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "Field 'name' is required.")
	}
	if utf8.RuneCountInString(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "Field 'name' must be at most 255 characters.")
	}
	return nil
}
