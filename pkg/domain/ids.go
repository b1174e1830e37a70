package domain

import (
	"github.com/google/uuid"

	dErrors "clanhub/pkg/domain-errors"
)

// ClanID identifies a clan. It is a distinct type so a clan id cannot be
// passed where another UUID-keyed identifier is expected.
type ClanID uuid.UUID

// NewClanID returns a fresh random (v4) clan id.
func NewClanID() ClanID {
	return ClanID(uuid.New())
}

// ParseClanID validates s at a trust boundary. Empty, malformed and nil UUIDs
// are rejected with CodeInvalidInput.
func ParseClanID(s string) (ClanID, error) {
	u, err := parseUUID(s, "clan id")
	if err != nil {
		return ClanID{}, err
	}
	return ClanID(u), nil
}

func (c ClanID) String() string {
	return uuid.UUID(c).String()
}

func (c ClanID) IsNil() bool {
	return uuid.UUID(c) == uuid.Nil
}

// MarshalText lets ClanID serialize as its canonical string form.
func (c ClanID) MarshalText() ([]byte, error) {
	return uuid.UUID(c).MarshalText()
}

func (c *ClanID) UnmarshalText(data []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(data); err != nil {
		return err
	}
	*c = ClanID(u)
	return nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
