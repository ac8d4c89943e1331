package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog entry orders snapshot from. Pricing always reads the
// current PriceKobo here, never a client-supplied price.
type Product struct {
	ID          uuid.UUID `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceKobo   int64     `json:"price_kobo"`
	Colors      []string  `json:"colors"`
	Sizes       []string  `json:"sizes"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
