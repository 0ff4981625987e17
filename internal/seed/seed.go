package seed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"lojavirtual/internal/domain"
	authsvc "lojavirtual/internal/service/auth"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type UserWriter interface {
	Upsert(ctx context.Context, user domain.User) (*domain.User, error)
}

type userSeed struct {
	Email    string
	Name     string
	Password string
	Admin    bool
}

type productSeed struct {
	SKU         string
	Name        string
	Description string
	Price       string
	Promo       string
}

var users = []userSeed{
	{Email: "admin@loja.local", Name: "Administrador", Password: "Admin12345", Admin: true},
	{Email: "cliente@loja.local", Name: "Cliente Demo", Password: "Cliente12345"},
}

var products = []productSeed{
	{SKU: "CAM-001", Name: "Camiseta Básica", Description: "Camiseta de algodão", Price: "59.90", Promo: "49.90"},
	{SKU: "CAN-001", Name: "Caneca Loja", Description: "Caneca de cerâmica 300ml", Price: "34.50"},
	{SKU: "BON-001", Name: "Boné Aba Curva", Description: "Boné ajustável", Price: "79.00", Promo: "59.25"},
	{SKU: "MOC-001", Name: "Mochila Urbana", Description: "Mochila 20L", Price: "199.90"},
}

// Apply inserts demo users and products for manual testing. It is idempotent
// because both writers upsert on their natural keys.
func Apply(ctx context.Context, productWriter ProductWriter, userWriter UserWriter, logger zerolog.Logger) error {
	for _, u := range users {
		hash, err := authsvc.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		saved, err := userWriter.Upsert(ctx, domain.User{
			Email:        u.Email,
			Name:         u.Name,
			PasswordHash: hash,
			IsAdmin:      u.Admin,
		})
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", u.Email, err)
		}
		logger.Info().Int64("user_id", saved.ID).Str("email", saved.Email).Bool("admin", saved.IsAdmin).Msg("seeded user")
	}

	for _, p := range products {
		product, err := p.product()
		if err != nil {
			return fmt.Errorf("product %s: %w", p.SKU, err)
		}
		if _, err := productWriter.Upsert(ctx, product); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}
	logger.Info().Int("count", len(products)).Msg("seeded products")
	return nil
}

func (p productSeed) product() (domain.Product, error) {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return domain.Product{}, err
	}
	out := domain.Product{
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Active:      true,
	}
	if p.Promo != "" {
		promo, err := decimal.NewFromString(p.Promo)
		if err != nil {
			return domain.Product{}, err
		}
		out.PromotionalPrice = &promo
	}
	return out, nil
}
