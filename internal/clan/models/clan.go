package models

import (
	"strings"
	"time"

	id "clanhub/pkg/domain"
	dErrors "clanhub/pkg/domain-errors"
)

// Clan is the single managed entity.
//
// Invariants:
//   - ID is generated by the service and never changes
//   - Name is non-empty
//   - Region is nil when unset, never a pointer to ""
//   - CreatedAt is assigned by the store at insertion
type Clan struct {
	ID        id.ClanID
	Name      string
	Region    *string
	CreatedAt time.Time
}

// NewClan builds a clan ready for insertion. Name is kept exactly as given;
// CreatedAt stays zero until the store assigns it.
func NewClan(clanID id.ClanID, name string, region *string) (*Clan, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name must not be empty")
	}
	return &Clan{
		ID:     clanID,
		Name:   name,
		Region: NormalizeRegion(region),
	}, nil
}

// NormalizeRegion maps a blank region to nil. Any other value is returned
// unchanged.
func NormalizeRegion(region *string) *string {
	if region == nil || strings.TrimSpace(*region) == "" {
		return nil
	}
	value := *region
	return &value
}

// HasRegion reports whether the clan's region equals region.
func (c *Clan) HasRegion(region string) bool {
	return c.Region != nil && *c.Region == region
}
