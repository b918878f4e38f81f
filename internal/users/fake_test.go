package users

import "github.com/joao-fontenele/meyshop/internal/testutil"

var testSecret = []byte("test-secret")

func newMemoryRepo() *testutil.AccountStore {
	return testutil.NewAccountStore()
}

func newTestService(repo Repository) *Service {
	return NewService(repo, testSecret, 0, nil, testutil.DiscardLogger())
}
