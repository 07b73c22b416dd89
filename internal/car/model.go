package car

import "time"

// Car is owned by the catalog; the order flow only reads price and owner and
// toggles IsAvailable.
type Car struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	LicensePlate string    `json:"licensePlate"`
	Price        int64     `json:"price"`
	IsAvailable  bool      `json:"isAvailable"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (c *Car) DisplayName() string {
	return c.Brand + " " + c.Model + " (" + c.LicensePlate + ")"
}
