package catalog

// Package catalog provides catalog.yaml parsing and product seeding.

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type CatalogConfig struct {
	Shop     ShopConfig      `yaml:"shop"`
	Products []ProductConfig `yaml:"products"`
}

type ShopConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

type ProductConfig struct {
	SKU         string   `yaml:"sku"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	PriceKobo   int64    `yaml:"price_kobo"`
	Colors      []string `yaml:"colors"`
	Sizes       []string `yaml:"sizes"`
	Active      bool     `yaml:"active"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(content []byte) (*CatalogConfig, error) {
	var config CatalogConfig
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &config, nil
}

func (p *Parser) ParseFromString(content string) (*CatalogConfig, error) {
	return p.Parse([]byte(content))
}
