package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bnema/nodekeeper/internal/domain"
	"github.com/bnema/nodekeeper/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountServiceListMasksTokens(t *testing.T) {
	repo := mocks.NewMockAccountStore(t)
	direct := testAccount("node-2")
	direct.Proxy = ""
	broken := testAccount("node-3")
	broken.Proxy = "ftp://1.2.3.4"
	malformed := fmt.Errorf("line 9: %w", domain.ErrMalformedCredential)
	repo.EXPECT().List(mockAnyContext()).Return([]domain.Account{testAccount("node-1"), direct, broken}, malformed)

	views, err := NewAccountService(repo).List(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformedCredential)
	require.Len(t, views, 3)

	assert.Equal(t, domain.NodeID("node-1"), views[0].NodeID)
	assert.Equal(t, "user-node-1", views[0].UserID)
	assert.Equal(t, "1.2.3.4", views[0].IPAddress)
	assert.Equal(t, domain.ProxyHTTP, views[0].ProxyKind)
	assert.NotContains(t, views[0].MaskedToken, testAccount("node-1").Token)
	assert.Contains(t, views[0].MaskedToken, "...")
	assert.Empty(t, views[0].Problem)

	assert.Equal(t, domain.ProxyDirect, views[1].ProxyKind)
	assert.Empty(t, views[1].IPAddress)

	assert.Contains(t, views[2].Problem, "unsupported proxy")
}

func TestAccountServiceListFailsOnRepositoryError(t *testing.T) {
	repo := mocks.NewMockAccountStore(t)
	repo.EXPECT().List(mockAnyContext()).Return(nil, errors.New("permission denied"))

	_, err := NewAccountService(repo).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list accounts")
}

func TestAccountServiceAddSavesValidAccount(t *testing.T) {
	store := mocks.NewMockAccountStore(t)
	account := testAccount("node-1")
	account.Name = "main"
	store.EXPECT().Save(mockAnyContext(), account).Return(nil)

	err := NewAccountService(store).Add(context.Background(), store, account)
	require.NoError(t, err)
}

func TestAccountServiceAddRejectsInvalidAccount(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Account)
		wantErr error
	}{
		{name: "opaque token", mutate: func(a *domain.Account) { a.Token = "opaque" }, wantErr: domain.ErrInvalidToken},
		{name: "bad proxy", mutate: func(a *domain.Account) { a.Proxy = "ftp://x" }, wantErr: domain.ErrUnsupportedProxy},
		{name: "no node", mutate: func(a *domain.Account) { a.NodeID = "" }, wantErr: domain.ErrMalformedCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockAccountStore(t)
			account := testAccount("node-1")
			tt.mutate(&account)

			err := NewAccountService(store).Add(context.Background(), store, account)
			assert.ErrorIs(t, err, tt.wantErr)
			store.AssertNotCalled(t, "Save")
		})
	}
}

func TestAccountServiceImportSkipsBadEntries(t *testing.T) {
	source := mocks.NewMockAccountStore(t)
	target := mocks.NewMockAccountStore(t)

	bad := testAccount("node-2")
	bad.Token = "opaque"
	malformed := fmt.Errorf("line 3: %w", domain.ErrMalformedCredential)
	source.EXPECT().List(mockAnyContext()).Return([]domain.Account{testAccount("node-1"), bad, testAccount("node-3")}, malformed)
	target.EXPECT().Save(mockAnyContext(), testAccount("node-1")).Return(nil).Once()
	target.EXPECT().Save(mockAnyContext(), testAccount("node-3")).Return(nil).Once()

	imported, skipped, err := NewAccountService(source).Import(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	require.Error(t, skipped)
	assert.ErrorIs(t, skipped, domain.ErrMalformedCredential)
	assert.ErrorIs(t, skipped, domain.ErrInvalidToken)
}

func TestAccountServiceImportStopsOnSaveError(t *testing.T) {
	source := mocks.NewMockAccountStore(t)
	target := mocks.NewMockAccountStore(t)

	source.EXPECT().List(mockAnyContext()).Return([]domain.Account{testAccount("node-1"), testAccount("node-2")}, nil)
	target.EXPECT().Save(mockAnyContext(), testAccount("node-1")).Return(errors.New("read-only file system")).Once()

	imported, skipped, err := NewAccountService(source).Import(context.Background(), target)
	assert.Equal(t, 0, imported)
	assert.NoError(t, skipped)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
}
