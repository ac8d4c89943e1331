package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productColumns = `
	id, sku, name, description, price_kobo, colors, sizes, active, created_at, updated_at
`

// UpsertBySKU syncs one catalog entry. The SKU is the stable identity across
// catalog reloads; price and options follow the file.
func (s *ProductStore) UpsertBySKU(ctx context.Context, product *Product) error {
	query := `
		INSERT INTO products (sku, name, description, price_kobo, colors, sizes, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price_kobo = EXCLUDED.price_kobo,
			colors = EXCLUDED.colors,
			sizes = EXCLUDED.sizes,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return s.pool.QueryRow(ctx, query,
		product.SKU, product.Name, product.Description, product.PriceKobo,
		product.Colors, product.Sizes, product.Active,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

// DeactivateMissing retires products whose SKU fell out of the catalog.
func (s *ProductStore) DeactivateMissing(ctx context.Context, keepSKUs []string) (int64, error) {
	query := `
		UPDATE products
		SET active = FALSE, updated_at = NOW()
		WHERE active = TRUE AND sku <> ALL($1)
	`
	cmdTag, err := s.pool.Exec(ctx, query, keepSKUs)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

// GetActiveByIDs returns the active subset of the requested products.
// Checkout uses this to reject retired or unknown product ids.
func (s *ProductStore) GetActiveByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) AND active = TRUE`
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[uuid.UUID]*Product)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products[product.ID] = product
	}
	return products, rows.Err()
}

func (s *ProductStore) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	rows, err := s.pool.Query(ctx, query, sku)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	return scanProduct(rows)
}

func (s *ProductStore) ListActive(ctx context.Context) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active = TRUE ORDER BY name`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func scanProduct(rows pgx.Rows) (*Product, error) {
	var product Product
	err := rows.Scan(
		&product.ID, &product.SKU, &product.Name, &product.Description,
		&product.PriceKobo, &product.Colors, &product.Sizes, &product.Active,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}
