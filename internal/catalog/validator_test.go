package catalog

import "testing"

func validCatalog() *CatalogConfig {
	return &CatalogConfig{
		Shop: ShopConfig{Name: "Mavie", Currency: "NGN"},
		Products: []ProductConfig{
			{
				SKU:       "TEE-CLASSIC",
				Name:      "Classic Tee",
				PriceKobo: 2500000,
				Colors:    []string{"Black", "White"},
				Sizes:     []string{"S", "M", "L"},
				Active:    true,
			},
		},
	}
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*CatalogConfig)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*CatalogConfig) {},
			wantErr: false,
		},
		{
			name:    "unsupported currency",
			mutate:  func(c *CatalogConfig) { c.Shop.Currency = "usd" },
			wantErr: true,
		},
		{
			name:    "no products",
			mutate:  func(c *CatalogConfig) { c.Products = nil },
			wantErr: true,
		},
		{
			name:    "invalid sku",
			mutate:  func(c *CatalogConfig) { c.Products[0].SKU = "-bad-" },
			wantErr: true,
		},
		{
			name:    "lowercase sku",
			mutate:  func(c *CatalogConfig) { c.Products[0].SKU = "tee-classic" },
			wantErr: true,
		},
		{
			name:    "zero price",
			mutate:  func(c *CatalogConfig) { c.Products[0].PriceKobo = 0 },
			wantErr: true,
		},
		{
			name: "duplicate sku",
			mutate: func(c *CatalogConfig) {
				c.Products = append(c.Products, c.Products[0])
			},
			wantErr: true,
		},
		{
			name:    "duplicate color",
			mutate:  func(c *CatalogConfig) { c.Products[0].Colors = []string{"Black", "Black"} },
			wantErr: true,
		},
		{
			name:    "blank size",
			mutate:  func(c *CatalogConfig) { c.Products[0].Sizes = []string{" "} },
			wantErr: true,
		},
	}

	validator := NewValidator()
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			config := validCatalog()
			tc.mutate(config)
			err := validator.Validate(config)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}
