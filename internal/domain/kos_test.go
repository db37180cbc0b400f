package domain_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kos_service/internal/domain"
)

func TestKosInput_PresenceMarkers(t *testing.T) {
	var in domain.KosInput
	body := `{"name":"Kos Melati","description":null,"numRooms":null,"monthlyRentPrice":"1500000.50"}`
	require.NoError(t, json.Unmarshal([]byte(body), &in))

	name, ok := in.Name.Get()
	assert.True(t, ok)
	assert.Equal(t, "Kos Melati", name)

	assert.False(t, in.Address.Set, "absent key must not be marked present")

	assert.True(t, in.Description.Set)
	assert.True(t, in.Description.Null)
	assert.Nil(t, in.Description.Value)

	_, ok = in.NumRooms.Get()
	assert.False(t, ok, "explicit null is not a value")
	assert.True(t, in.NumRooms.Set)

	price, ok := in.MonthlyRentPrice.Get()
	assert.True(t, ok)
	assert.True(t, price.Equal(decimal.RequireFromString("1500000.5")))
}

func TestKos_MarshalsRentAsNumber(t *testing.T) {
	k := domain.Kos{ID: "k1", Name: "Kos Melati", MonthlyRentPrice: decimal.RequireFromString("1500000.50")}
	b, err := json.Marshal([]domain.Kos{k})
	require.NoError(t, err)

	var raw []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "1500000.5", string(raw[0]["monthlyRentPrice"]))
	assert.Equal(t, `"Kos Melati"`, string(raw[0]["name"]))
	assert.Contains(t, raw[0], "ownerUserId")

	var back domain.Kos
	require.NoError(t, json.Unmarshal(b[1:len(b)-1], &back))
	assert.True(t, back.MonthlyRentPrice.Equal(k.MonthlyRentPrice))
}

func TestKos_Apply(t *testing.T) {
	desc := "dekat kampus"
	k := domain.Kos{
		Name:             "Old",
		Address:          "Jl. Margonda 1",
		Description:      &desc,
		NumRooms:         5,
		MonthlyRentPrice: decimal.NewFromInt(1000000),
		IsListed:         true,
	}

	k.Apply(domain.KosInput{
		Name:        domain.Some("New"),
		NumRooms:    domain.Null[int](),
		Description: domain.Null[*string](),
		IsListed:    domain.Some(false),
	})

	assert.Equal(t, "New", k.Name)
	assert.Equal(t, "Jl. Margonda 1", k.Address)
	assert.Nil(t, k.Description)
	assert.Equal(t, 5, k.NumRooms)
	assert.False(t, k.IsListed)
	assert.True(t, k.MonthlyRentPrice.Equal(decimal.NewFromInt(1000000)))
}

func TestKos_ApplyLeavesDescriptionWhenAbsent(t *testing.T) {
	desc := "keep me"
	k := domain.Kos{Description: &desc}
	k.Apply(domain.KosInput{Name: domain.Some("x")})
	require.NotNil(t, k.Description)
	assert.Equal(t, "keep me", *k.Description)
}

func TestPrincipal_Context(t *testing.T) {
	_, ok := domain.PrincipalFrom(context.Background())
	assert.False(t, ok)

	p := domain.Principal{ID: "u-1", Capabilities: []domain.Capability{domain.CapabilityOwner}}
	ctx := domain.WithPrincipal(context.Background(), p)
	got, ok := domain.PrincipalFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "u-1", got.ID)
	assert.True(t, got.Has(domain.CapabilityOwner))
	assert.False(t, got.Has(domain.CapabilityInternal))
}

func TestValidationError_Is(t *testing.T) {
	err := domain.NewValidationError("name", "Kos name cannot be null or empty.")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
