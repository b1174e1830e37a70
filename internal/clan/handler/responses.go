package handler

import (
	"time"

	"clanhub/internal/clan/models"
)

// ClanResponse is the wire form of a clan.
type ClanResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Region    *string   `json:"region"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateClanResponse is returned by POST /clans.
type CreateClanResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// DeleteClanResponse is returned by DELETE /clans/{id}.
type DeleteClanResponse struct {
	Message string `json:"message"`
}

// FromClan converts a domain clan to its response form.
func FromClan(c *models.Clan) *ClanResponse {
	return &ClanResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Region:    c.Region,
		CreatedAt: c.CreatedAt.UTC(),
	}
}

// FromClans converts a slice, always yielding a JSON array.
func FromClans(clans []*models.Clan) []*ClanResponse {
	out := make([]*ClanResponse, 0, len(clans))
	for _, c := range clans {
		out = append(out, FromClan(c))
	}
	return out
}
