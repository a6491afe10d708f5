package iprofilerepo

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
)

var ErrProfileNotFound = errors.New("profile not found")

// IProfileRepository loads identity profiles.
type IProfileRepository interface {
	Get(ctx context.Context, uid string) (identity.Profile, error)
}
