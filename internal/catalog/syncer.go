package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/maviecommerce/mavie/internal/logging"
	"github.com/maviecommerce/mavie/internal/models"
)

// ProductSyncStore is the slice of the product store the syncer needs.
type ProductSyncStore interface {
	UpsertBySKU(ctx context.Context, product *models.Product) error
	DeactivateMissing(ctx context.Context, keepSKUs []string) (int64, error)
}

// Syncer loads the catalog file into the products table at startup. The file
// is the source of truth for SKUs, prices and options; products that fall out
// of the file are deactivated, never deleted, so old order snapshots keep
// their references.
type Syncer struct {
	parser    *Parser
	validator *Validator
	store     ProductSyncStore
}

func NewSyncer(store ProductSyncStore) *Syncer {
	return &Syncer{
		parser:    NewParser(),
		validator: NewValidator(),
		store:     store,
	}
}

type SyncResult struct {
	Synced      int
	Deactivated int64
}

func (s *Syncer) SyncFromFile(ctx context.Context, path string) (*SyncResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return s.Sync(ctx, content)
}

func (s *Syncer) Sync(ctx context.Context, content []byte) (*SyncResult, error) {
	logger := logging.FromContext(ctx, nil)

	config, err := s.parser.Parse(content)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}

	result := &SyncResult{}
	keepSKUs := make([]string, 0, len(config.Products))
	for _, entry := range config.Products {
		product := &models.Product{
			SKU:         entry.SKU,
			Name:        entry.Name,
			Description: entry.Description,
			PriceKobo:   entry.PriceKobo,
			Colors:      entry.Colors,
			Sizes:       entry.Sizes,
			Active:      entry.Active,
		}
		if err := s.store.UpsertBySKU(ctx, product); err != nil {
			return nil, fmt.Errorf("failed to sync product %s: %w", entry.SKU, err)
		}
		keepSKUs = append(keepSKUs, entry.SKU)
		result.Synced++
	}

	deactivated, err := s.store.DeactivateMissing(ctx, keepSKUs)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate removed products: %w", err)
	}
	result.Deactivated = deactivated

	logger.Info("catalog synced",
		"products", result.Synced,
		"deactivated", result.Deactivated,
	)
	return result, nil
}
