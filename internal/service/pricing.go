package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// TaxRatePercent is applied to every order subtotal.
const TaxRatePercent = 10

// MaxQuantity caps a single line of an order.
const MaxQuantity = 1000

// maxSubtotalCents keeps subtotal*TaxRatePercent and subtotal+tax inside int64.
const maxSubtotalCents = (math.MaxInt64 - 50) / TaxRatePercent

var (
	priceNoise  = regexp.MustCompile(`[^0-9.\-]+`)
	priceNumber = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)`)
)

// OrderItem is a requested food and how many of it.
type OrderItem struct {
	FoodID   uint64
	Quantity int
}

// Order is a fully priced set of line items.
type Order struct {
	Items         []model.LineItem
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
}

// applyTo replaces the order and all three money fields of res together.
func (o Order) applyTo(res *model.Reservation) {
	res.Items = o.Items
	res.SubtotalCents = o.SubtotalCents
	res.TaxCents = o.TaxCents
	res.TotalCents = o.TotalCents
}

// Pricer prices orders against the live menu.
type Pricer struct {
	catalog Catalog
}

// NewPricer returns a Pricer reading prices from catalog.
func NewPricer(catalog Catalog) *Pricer { return &Pricer{catalog: catalog} }

// PriceOrder resolves every item's current menu price and image, computes
// line totals and the subtotal, tax and total.  Quantities are checked
// before any lookup; one unknown food fails the whole order, and so does
// any amount that would not fit in int64 cents.
func (p *Pricer) PriceOrder(ctx context.Context, items []OrderItem) (Order, error) {
	for _, it := range items {
		if it.Quantity < 1 || it.Quantity > MaxQuantity {
			return Order{}, fmt.Errorf("%w: food %d has quantity %d", ErrInvalidQuantity, it.FoodID, it.Quantity)
		}
	}
	order := Order{Items: make([]model.LineItem, 0, len(items))}
	for _, it := range items {
		food, err := p.catalog.FindFood(ctx, it.FoodID)
		if errors.Is(err, repository.ErrFoodNotFound) {
			return Order{}, fmt.Errorf("%w: %d", ErrFoodNotFound, it.FoodID)
		}
		if err != nil {
			return Order{}, fmt.Errorf("find food %d: %w", it.FoodID, err)
		}
		unit, err := ParsePrice(food.Price)
		if err != nil {
			return Order{}, fmt.Errorf("food %d: %w", it.FoodID, err)
		}
		line, fits := mulCents(unit, int64(it.Quantity))
		if !fits {
			return Order{}, fmt.Errorf("%w: food %d x %d", ErrOrderTooLarge, it.FoodID, it.Quantity)
		}
		order.Items = append(order.Items, model.LineItem{
			FoodID:         it.FoodID,
			Quantity:       it.Quantity,
			UnitPriceCents: unit,
			PriceCents:     line,
			Image:          food.Image,
		})
		if order.SubtotalCents, fits = addCents(order.SubtotalCents, line); !fits || order.SubtotalCents > maxSubtotalCents {
			return Order{}, ErrOrderTooLarge
		}
	}
	order.TaxCents = TaxCents(order.SubtotalCents)
	order.TotalCents = order.SubtotalCents + order.TaxCents
	return order, nil
}

// ParsePrice turns a formatted menu price such as "$1,250.50" or "50.000đ"
// into cents.  Every character other than digits, '.' and '-' is dropped
// and the leading number of what remains is used.
func ParsePrice(raw string) (int64, error) {
	num := priceNumber.FindString(priceNoise.ReplaceAllString(raw, ""))
	if num == "" || num == "-" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	cents, ok := AmountToCents(f)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	return cents, nil
}

// TaxCents returns the tax on subtotal, rounded half up to the cent.
func TaxCents(subtotal int64) int64 {
	return (subtotal*TaxRatePercent + 50) / 100
}

// AmountToCents converts a decimal amount to cents.  ok is false when the
// amount is not finite or does not fit in int64 cents.
func AmountToCents(amount float64) (cents int64, ok bool) {
	c := math.Round(amount * 100)
	if math.IsNaN(c) || c >= math.MaxInt64 || c <= math.MinInt64 {
		return 0, false
	}
	return int64(c), true
}

// mulCents multiplies two non-negative amounts, reporting overflow.
func mulCents(a, b int64) (int64, bool) {
	if a != 0 && b > math.MaxInt64/a {
		return 0, false
	}
	return a * b, true
}

// addCents adds two non-negative amounts, reporting overflow.
func addCents(a, b int64) (int64, bool) {
	if a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

// CentsToAmount converts cents back to a decimal amount.
func CentsToAmount(cents int64) float64 {
	return float64(cents) / 100
}
