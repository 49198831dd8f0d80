package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/nodekeeper/internal/domain"
	"github.com/bnema/nodekeeper/internal/ports"
)

type AccountService struct {
	repo ports.AccountRepository
}

// AccountView is an account as shown to the user, with the token masked.
type AccountView struct {
	Name        string
	NodeID      domain.NodeID
	HardwareID  string
	MaskedToken string
	UserID      string
	IPAddress   string
	ProxyKind   domain.ProxyKind
	Problem     string
}

func NewAccountService(repo ports.AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

// List returns every readable account. Malformed entries are reported in
// the returned error next to the accounts that did load.
func (s *AccountService) List(ctx context.Context) ([]AccountView, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil && !errors.Is(err, domain.ErrMalformedCredential) {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	views := make([]AccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, viewFromAccount(account))
	}

	return views, err
}

// Add validates an account and stores it, replacing an entry with the same
// node id.
func (s *AccountService) Add(ctx context.Context, store ports.AccountStore, account domain.Account) error {
	if err := checkAccount(account); err != nil {
		return err
	}

	if err := store.Save(ctx, account); err != nil {
		return fmt.Errorf("save account: %w", err)
	}

	return nil
}

// Import copies every usable account from the service repository into
// store. Entries it had to leave out are joined into skipped; err is set
// only when the import itself failed.
func (s *AccountService) Import(ctx context.Context, store ports.AccountStore) (imported int, skipped error, err error) {
	accounts, listErr := s.repo.List(ctx)
	if listErr != nil {
		if !errors.Is(listErr, domain.ErrMalformedCredential) {
			return 0, nil, fmt.Errorf("list accounts: %w", listErr)
		}
		skipped = listErr
	}

	for _, account := range accounts {
		if checkErr := checkAccount(account); checkErr != nil {
			skipped = errors.Join(skipped, fmt.Errorf("node %s: %w", account.NodeID.Short(), checkErr))
			continue
		}
		if saveErr := store.Save(ctx, account); saveErr != nil {
			return imported, skipped, fmt.Errorf("save account %s: %w", account.NodeID.Short(), saveErr)
		}
		imported++
	}

	return imported, skipped, nil
}

func checkAccount(account domain.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	if _, err := domain.UserIDFromToken(account.Token); err != nil {
		return err
	}
	if _, err := domain.ParseProxy(account.Proxy); err != nil {
		return err
	}
	return nil
}

func viewFromAccount(account domain.Account) AccountView {
	view := AccountView{
		Name:        account.Name,
		NodeID:      account.NodeID,
		HardwareID:  account.HardwareID,
		MaskedToken: domain.MaskToken(account.Token),
		IPAddress:   domain.IPFromProxyURL(account.Proxy),
	}

	userID, err := domain.UserIDFromToken(account.Token)
	if err != nil {
		view.Problem = err.Error()
	}
	view.UserID = userID

	proxy, err := domain.ParseProxy(account.Proxy)
	if err != nil {
		view.Problem = err.Error()
		return view
	}
	view.ProxyKind = proxy.Kind

	return view
}
