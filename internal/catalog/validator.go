package catalog

// Package catalog provides configuration validation.

import (
	"fmt"
	"regexp"
	"strings"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

var skuRegex = regexp.MustCompile(`^[A-Z0-9](?:[A-Z0-9_-]{0,62}[A-Z0-9])?$`)

// IsValidSKU validates a catalog SKU (uppercase alphanumerics, hyphen and
// underscore inside, 1-64 chars).
func IsValidSKU(sku string) bool {
	return skuRegex.MatchString(sku)
}

func (v *Validator) Validate(config *CatalogConfig) error {
	if err := v.validateShop(&config.Shop); err != nil {
		return fmt.Errorf("shop validation failed: %w", err)
	}

	if len(config.Products) == 0 {
		return fmt.Errorf("at least one product is required")
	}

	skus := make(map[string]bool)
	for i, product := range config.Products {
		if err := v.validateProduct(&product); err != nil {
			return fmt.Errorf("product %d validation failed: %w", i, err)
		}

		if skus[product.SKU] {
			return fmt.Errorf("duplicate SKU: %s", product.SKU)
		}
		skus[product.SKU] = true
	}

	return nil
}

func (v *Validator) validateShop(shop *ShopConfig) error {
	if strings.TrimSpace(shop.Name) == "" {
		return fmt.Errorf("shop name is required")
	}

	if shop.Currency != "NGN" {
		return fmt.Errorf("only NGN currency is supported")
	}

	return nil
}

func (v *Validator) validateProduct(product *ProductConfig) error {
	if !IsValidSKU(product.SKU) {
		return fmt.Errorf("product SKU %q is invalid", product.SKU)
	}

	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("product name is required")
	}

	if product.PriceKobo <= 0 {
		return fmt.Errorf("product price must be positive")
	}

	seenColors := make(map[string]bool)
	for _, color := range product.Colors {
		if strings.TrimSpace(color) == "" {
			return fmt.Errorf("product colors cannot be blank")
		}
		if seenColors[color] {
			return fmt.Errorf("duplicate color: %s", color)
		}
		seenColors[color] = true
	}

	seenSizes := make(map[string]bool)
	for _, size := range product.Sizes {
		if strings.TrimSpace(size) == "" {
			return fmt.Errorf("product sizes cannot be blank")
		}
		if seenSizes[size] {
			return fmt.Errorf("duplicate size: %s", size)
		}
		seenSizes[size] = true
	}

	return nil
}
