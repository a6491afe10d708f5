package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/checkout/internal/dal/postgres"
	"github.com/corray333/backend-labs/checkout/internal/service/models/cart"
	"github.com/shopspring/decimal"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// CartItemDal represents a cart_items row.
type CartItemDal struct {
	ProductID string
	Name      string
	Price     string
	Quantity  int
	Image     string
}

// ToModel converts CartItemDal to the service layer LineItem.
func (d *CartItemDal) ToModel() (cart.LineItem, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return cart.LineItem{}, fmt.Errorf("failed to parse price of %s: %w", d.ProductID, err)
	}

	return cart.LineItem{
		ID:       d.ProductID,
		Name:     d.Name,
		Price:    price,
		Quantity: d.Quantity,
		Image:    d.Image,
	}, nil
}

// CartRepository reads the storefront cart from PostgreSQL.
type CartRepository struct {
	client *postgres.Client
}

// NewCartRepository creates a new cart repository.
func NewCartRepository(client *postgres.Client) *CartRepository {
	return &CartRepository{client: client}
}

func buildItems(userID string) (string, []any, error) {
	return psql.Select("product_id", "name", "price::text", "quantity", "image").
		From("cart_items").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
}

// Items returns the user's cart lines in the order they were added.
func (r *CartRepository) Items(ctx context.Context, userID string) ([]cart.LineItem, error) {
	query, args, err := buildItems(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []cart.LineItem{}
	for rows.Next() {
		var dal CartItemDal
		if err := rows.Scan(&dal.ProductID, &dal.Name, &dal.Price, &dal.Quantity, &dal.Image); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		item, err := dal.ToModel()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// Clear removes every line of the user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	query, args, err := psql.Delete("cart_items").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.client.Pool().Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
