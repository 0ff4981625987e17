package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"lojavirtual/internal/domain"
)

// Columns lists the product columns in the order Scanned expects them.
// Prices are read as text to keep their exact decimal value.
const Columns = `p.id, p.sku, p.name, COALESCE(p.description, ''), p.price::text, p.promotional_price::text, p.active, p.created_at`

// Scanned receives one product row selected with Columns.
type Scanned struct {
	product domain.Product
	price   string
	promo   *string
}

// Targets returns the Scan destinations matching Columns.
func (s *Scanned) Targets() []any {
	return []any{
		&s.product.ID,
		&s.product.SKU,
		&s.product.Name,
		&s.product.Description,
		&s.price,
		&s.promo,
		&s.product.Active,
		&s.product.CreatedAt,
	}
}

// Product converts the scanned row, parsing its prices.
func (s *Scanned) Product() (domain.Product, error) {
	p := s.product
	price, err := decimal.NewFromString(s.price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %d: parse price %q: %w", p.ID, s.price, err)
	}
	p.Price = price
	if s.promo != nil {
		promo, err := decimal.NewFromString(*s.promo)
		if err != nil {
			return domain.Product{}, fmt.Errorf("product %d: parse promotional price %q: %w", p.ID, *s.promo, err)
		}
		p.PromotionalPrice = &promo
	}
	return p, nil
}

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zerolog.Logger) Repository {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("repo", "product").Logger()
	}
	return &postgresRepo{pool: pool, logger: l}
}

func (r *postgresRepo) ListActive(ctx context.Context) ([]domain.Product, error) {
	const q = `
SELECT ` + Columns + `
FROM products p
WHERE p.active
ORDER BY p.created_at DESC, p.id DESC
`
	return r.list(ctx, "list_active", q)
}

func (r *postgresRepo) ListPromotional(ctx context.Context) ([]domain.Product, error) {
	const q = `
SELECT ` + Columns + `
FROM products p
WHERE p.active
  AND p.promotional_price IS NOT NULL
  AND p.promotional_price < p.price
ORDER BY p.created_at DESC, p.id DESC
`
	return r.list(ctx, "list_promotional", q)
}

func (r *postgresRepo) list(ctx context.Context, op, q string) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error().Err(err).Str("op", op).Msg("query failed")
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var s Scanned
		if err := rows.Scan(s.Targets()...); err != nil {
			return nil, err
		}
		p, err := s.Product()
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Str("op", op).Msg("rows failed")
		return nil, err
	}
	r.logger.Debug().Str("op", op).Int("count", len(result)).Msg("listed products")
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	const q = `
SELECT ` + Columns + `
FROM products p
WHERE p.id = $1
`
	var s Scanned
	err := r.pool.QueryRow(ctx, q, id).Scan(s.Targets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("get product failed")
		return nil, err
	}
	p, err := s.Product()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (sku, name, description, price, promotional_price, active)
VALUES ($1, $2, NULLIF($3, ''), $4::numeric, $5::numeric, $6)
ON CONFLICT (sku) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    promotional_price = EXCLUDED.promotional_price,
    active = EXCLUDED.active
RETURNING id, created_at
`
	var promo *string
	if product.PromotionalPrice != nil {
		s := product.PromotionalPrice.String()
		promo = &s
	}
	res := product
	err := r.pool.QueryRow(ctx, q,
		product.SKU,
		product.Name,
		product.Description,
		product.Price.String(),
		promo,
		product.Active,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("sku", product.SKU).Msg("upsert product failed")
		return nil, err
	}
	r.logger.Info().Str("sku", res.SKU).Int64("product_id", res.ID).Msg("upserted product")
	return &res, nil
}
