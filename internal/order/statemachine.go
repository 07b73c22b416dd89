package order

import "time"

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusOngoing, StatusCancelled},
	StatusOngoing:   {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// ActiveStatuses block the car for the order's date range.
var ActiveStatuses = []OrderStatus{StatusPending, StatusConfirmed, StatusOngoing}

// OccupyingStatuses keep a car marked unavailable.
var OccupyingStatuses = []OrderStatus{StatusConfirmed, StatusOngoing}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// sellerOnly reports target statuses only the car owner may set.
func sellerOnly(to OrderStatus) bool {
	return to == StatusConfirmed || to == StatusOngoing || to == StatusCompleted
}

// authorizeTransition applies the role rules once the transition itself is
// known to be valid.
func authorizeTransition(o *Order, to OrderStatus, actingUserID string) error {
	if sellerOnly(to) && actingUserID != o.SellerID {
		return ErrSellerOnly
	}
	if to == StatusCancelled && o.Status == StatusPending && actingUserID != o.CustomerID {
		return ErrCustomerOnly
	}
	return nil
}

const day = 24 * time.Hour

// RentalDays counts started days: any partial day is billed as a full one.
func RentalDays(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	days := int64(d / day)
	if d%day != 0 {
		days++
	}
	return days
}

func TotalPrice(pricePerDay int64, start, end time.Time) int64 {
	return pricePerDay * RentalDays(start, end)
}

// Overlaps treats both ranges as closed intervals, so an order ending at the
// exact instant another starts still conflicts.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}
