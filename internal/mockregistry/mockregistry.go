// Package mockregistry provides a testify-based mock of the user registry
// consumed by the router package.
package mockregistry

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/greeter/internal/models"
)

// RegistryMock is a testify mock implementing the registry methods the
// router depends on. Use it to simulate registry failures in handler tests.
type RegistryMock struct {
	mock.Mock
}

// Get mocks a registry lookup.
func (m *RegistryMock) Get(ctx context.Context, id models.UserID) (models.User, bool, error) {
	args := m.Called(ctx, id)
	usr, _ := args.Get(0).(models.User)
	return usr, args.Bool(1), args.Error(2)
}

// Insert mocks storing a new record.
func (m *RegistryMock) Insert(ctx context.Context, usr models.User) (models.UserID, error) {
	args := m.Called(ctx, usr)
	id, _ := args.Get(0).(models.UserID)
	return id, args.Error(1)
}
