package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iprofilerepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/postgres"
	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/jackc/pgx/v5"
)

// ProfileRepository loads identity profiles from PostgreSQL.
type ProfileRepository struct {
	client *postgres.Client
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(client *postgres.Client) *ProfileRepository {
	return &ProfileRepository{client: client}
}

func buildGet(uid string) (string, []any, error) {
	return sq.Select(
		"uid",
		"email",
		"display_name",
		"phone",
		"address",
		"city",
		"country",
		"zip",
	).
		From("profiles").
		Where(sq.Eq{"uid": uid}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

// Get returns the profile with the given uid or iprofilerepo.ErrProfileNotFound.
func (r *ProfileRepository) Get(ctx context.Context, uid string) (identity.Profile, error) {
	query, args, err := buildGet(uid)
	if err != nil {
		return identity.Profile{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var p identity.Profile
	err = r.client.Pool().QueryRow(ctx, query, args...).Scan(
		&p.UID,
		&p.Email,
		&p.DisplayName,
		&p.Phone,
		&p.Address,
		&p.City,
		&p.Country,
		&p.Zip,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.Profile{}, iprofilerepo.ErrProfileNotFound
	}
	if err != nil {
		return identity.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}

	return p, nil
}
