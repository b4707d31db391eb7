package pricing

import (
	"errors"

	"outlandish/models"
)

const (
	DefaultDepositPercent    int64 = 25
	DefaultMinBalancePercent int64 = 20
)

var (
	ErrInvalidGuests      = errors.New("guests must be a positive number")
	ErrNonPositiveTotal   = errors.New("unable to calculate booking price")
	ErrNonPositiveDeposit = errors.New("deposit amount must be positive")
)

// Totals is the price breakdown of a booking, in whole pounds.
type Totals struct {
	BaseTotal   int64 `json:"baseTotal"`
	ExtrasTotal int64 `json:"extrasTotal"`
	TotalAmount int64 `json:"totalAmount"`
	// SelectedOptionIDs is the selection after sanitizing, in the order first selected.
	SelectedOptionIDs []string `json:"selectedOptionIds"`
	// Selected holds the options behind SelectedOptionIDs, for line-item descriptions.
	Selected []models.ExtraOption `json:"-"`
}

// ComputeTotals prices a booking. Selected option ids that are not in allowed are dropped,
// as are repeats, so a client can only ever pick the tour's own active options once.
func ComputeTotals(tour models.Tour, guests int, selectedOptionIDs []string, allowed []models.ExtraOption) (Totals, error) {
	if guests <= 0 {
		return Totals{}, ErrInvalidGuests
	}
	g := int64(guests)

	var t Totals
	switch tour.PricingMode {
	case models.PricingPerTour:
		t.BaseTotal = tour.Price
	default:
		t.BaseTotal = tour.Price * g
	}

	byID := make(map[string]models.ExtraOption, len(allowed))
	for _, opt := range allowed {
		byID[opt.ID] = opt
	}

	seen := make(map[string]bool, len(selectedOptionIDs))
	t.SelectedOptionIDs = []string{}
	for _, id := range selectedOptionIDs {
		opt, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		if opt.ChargeType == models.ChargePerPerson {
			t.ExtrasTotal += opt.Price * g
		} else {
			t.ExtrasTotal += opt.Price
		}
		t.SelectedOptionIDs = append(t.SelectedOptionIDs, id)
		t.Selected = append(t.Selected, opt)
	}

	t.TotalAmount = t.BaseTotal + t.ExtrasTotal
	if t.TotalAmount <= 0 {
		return Totals{}, ErrNonPositiveTotal
	}
	return t, nil
}

// DepositAmount is round(total * percent / 100).
func DepositAmount(total, percent int64) (int64, error) {
	deposit := roundPercent(total, percent)
	if deposit <= 0 {
		return 0, ErrNonPositiveDeposit
	}
	return deposit, nil
}

// BalanceRemaining is max(0, total - paid).
func BalanceRemaining(total, paid int64) int64 {
	if rem := total - paid; rem > 0 {
		return rem
	}
	return 0
}

// MinBalancePayment is max(1, round(balance * percent / 100)), or 0 when nothing is owed.
func MinBalancePayment(balance, percent int64) int64 {
	if balance <= 0 {
		return 0
	}
	if m := roundPercent(balance, percent); m > 1 {
		return m
	}
	return 1
}

// ToMinorUnits converts whole pounds to pence. Only the checkout boundary calls this.
func ToMinorUnits(amount int64) int64 {
	return amount * 100
}

// NormalizeDepositPercent falls back to the default outside the open interval (0, 100).
func NormalizeDepositPercent(p int64) int64 {
	if p > 0 && p < 100 {
		return p
	}
	return DefaultDepositPercent
}

// NormalizeMinBalancePercent falls back to the default outside (0, 100].
func NormalizeMinBalancePercent(p int64) int64 {
	if p > 0 && p <= 100 {
		return p
	}
	return DefaultMinBalancePercent
}

// roundPercent rounds half up on non-negative amounts, matching the site's displayed prices.
func roundPercent(amount, percent int64) int64 {
	if amount <= 0 || percent <= 0 {
		return 0
	}
	return (amount*percent + 50) / 100
}
