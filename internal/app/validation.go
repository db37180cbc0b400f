package app

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"kos_service/internal/domain"
)

// Column limits of the kos table.
const maxNameLength = 255

var maxMonthlyRent = decimal.RequireFromString("99999999.99") // DECIMAL(10,2)

// Validate checks a create or update payload. On create every required field
// must be present; on update only fields carrying a value are checked.
// The first offending field is reported.
func Validate(in domain.KosInput, isCreate bool) error {
	if v, ok := in.Name.Get(); ok || isCreate {
		if strings.TrimSpace(v) == "" {
			return domain.NewValidationError("name", "Kos name cannot be null or empty.")
		}
		if utf8.RuneCountInString(v) > maxNameLength {
			return domain.NewValidationError("name", "Kos name cannot exceed 255 characters.")
		}
	}
	if v, ok := in.Address.Get(); ok || isCreate {
		if strings.TrimSpace(v) == "" {
			return domain.NewValidationError("address", "Kos address cannot be null or empty.")
		}
	}
	if v, ok := in.NumRooms.Get(); ok || isCreate {
		if !ok || v <= 0 {
			return domain.NewValidationError("numRooms", "Number of rooms must be positive.")
		}
		if v > math.MaxInt32 {
			return domain.NewValidationError("numRooms", "Number of rooms is too large.")
		}
	}
	if v, ok := in.MonthlyRentPrice.Get(); ok || isCreate {
		if !ok || !v.IsPositive() {
			return domain.NewValidationError("monthlyRentPrice", "Monthly rent price must be positive.")
		}
		if !v.Equal(v.Round(2)) {
			return domain.NewValidationError("monthlyRentPrice", "Monthly rent price cannot have more than 2 decimal places.")
		}
		if v.GreaterThan(maxMonthlyRent) {
			return domain.NewValidationError("monthlyRentPrice", "Monthly rent price cannot exceed 99999999.99.")
		}
	}
	return nil
}
