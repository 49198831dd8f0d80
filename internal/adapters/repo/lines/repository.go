package lines

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/nodekeeper/internal/domain"
	"github.com/bnema/nodekeeper/internal/ports"
)

const commentPrefix = "#"

// Repository reads accounts from a plain text file, one
// "token|nodeId:hardwareId|proxy" entry per line. It is read-only.
type Repository struct {
	path string
}

var _ ports.AccountRepository = (*Repository)(nil)

func NewRepository(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("accounts path is empty")
	}

	return &Repository{path: path}, nil
}

func (r *Repository) Path() string {
	return r.path
}

// List parses every non-blank line. Lines that fail to parse are skipped
// and reported together in an error wrapping ErrMalformedCredential, next
// to the accounts that did parse.
func (r *Repository) List(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open accounts file: %w", err)
	}
	defer file.Close()

	var (
		accounts []domain.Account
		skipped  error
		lineNo   int
	)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		account, err := domain.ParseCredentialLine(line)
		if err != nil {
			skipped = errors.Join(skipped, fmt.Errorf("line %d: %w", lineNo, err))
			continue
		}
		accounts = append(accounts, account)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}

	return accounts, skipped
}

func (r *Repository) GetByID(ctx context.Context, id domain.NodeID) (domain.Account, error) {
	accounts, err := r.List(ctx)
	if err != nil && !errors.Is(err, domain.ErrMalformedCredential) {
		return domain.Account{}, err
	}

	for _, account := range accounts {
		if account.NodeID == id {
			return account, nil
		}
	}

	return domain.Account{}, domain.ErrAccountNotFound
}
