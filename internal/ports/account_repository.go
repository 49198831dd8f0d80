package ports

import (
	"context"

	"github.com/bnema/nodekeeper/internal/domain"
)

// AccountRepository lists configured accounts. List may return usable
// accounts together with an error wrapping domain.ErrMalformedCredential
// for entries it had to skip.
type AccountRepository interface {
	GetByID(ctx context.Context, id domain.NodeID) (domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
}

type AccountStore interface {
	AccountRepository
	Save(ctx context.Context, account domain.Account) error
}
