package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Kos is a boarding-house listing owned by exactly one account.
type Kos struct {
	ID               string          `json:"id"`
	OwnerUserID      string          `json:"ownerUserId"`
	Name             string          `json:"name"`
	Address          string          `json:"address"`
	Description      *string         `json:"description"`
	NumRooms         int             `json:"numRooms"`
	MonthlyRentPrice decimal.Decimal `json:"monthlyRentPrice"`
	IsListed         bool            `json:"isListed"`
	OccupiedRooms    int             `json:"occupiedRooms"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// MarshalJSON writes monthlyRentPrice as a JSON number rather than decimal's default string.
func (k Kos) MarshalJSON() ([]byte, error) {
	type plain Kos
	return json.Marshal(struct {
		plain
		MonthlyRentPrice json.Number `json:"monthlyRentPrice"`
	}{plain(k), json.Number(k.MonthlyRentPrice.String())})
}

// KosInput is the body of a create or a partial update.
// Fields the caller does not own (id, owner, occupancy, timestamps) are not part of it.
type KosInput struct {
	Name             Optional[string]          `json:"name"`
	Address          Optional[string]          `json:"address"`
	Description      Optional[*string]         `json:"description"`
	NumRooms         Optional[int]             `json:"numRooms"`
	MonthlyRentPrice Optional[decimal.Decimal] `json:"monthlyRentPrice"`
	IsListed         Optional[bool]            `json:"isListed"`
}

// Apply copies every present field of in onto k.
// description follows the presence marker (null clears it); for the other
// fields an explicit null means "unchanged".
func (k *Kos) Apply(in KosInput) {
	if v, ok := in.Name.Get(); ok {
		k.Name = v
	}
	if v, ok := in.Address.Get(); ok {
		k.Address = v
	}
	if in.Description.Set {
		k.Description = in.Description.Value
	}
	if v, ok := in.NumRooms.Get(); ok {
		k.NumRooms = v
	}
	if v, ok := in.MonthlyRentPrice.Get(); ok {
		k.MonthlyRentPrice = v
	}
	if v, ok := in.IsListed.Get(); ok {
		k.IsListed = v
	}
}

// RentalCreatedEvent is published by the rental service when a tenant rents a room.
type RentalCreatedEvent struct {
	KosID     string          `json:"kosId"`
	RentalID  string          `json:"rentalId"`
	UserID    string          `json:"userId"`
	Price     decimal.Decimal `json:"price"`
	Timestamp string          `json:"timestamp"`
}
