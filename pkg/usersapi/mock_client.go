package usersapi

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/goliatone/go-userboard/components/userboard"
)

// MockClient implements the users API over an in-memory copy of a dataset.
// It backs demo mode and tests.
type MockClient struct {
	fixtures Dataset
	mu       sync.RWMutex
	data     Dataset
}

var _ userboard.FallbackSource = (*MockClient)(nil)

// NewMockClient builds a mock client seeded with data.
func NewMockClient(data Dataset) *MockClient {
	fixtures := data.Clone()
	return &MockClient{fixtures: fixtures, data: fixtures.Clone()}
}

// NewDemoClient builds a mock client seeded with DemoFixtures.
func NewDemoClient() *MockClient {
	return NewMockClient(DemoFixtures())
}

// Reset restores the seeded dataset, discarding local writes.
func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = c.fixtures.Clone()
}

// ListUsers returns a copy of the local users.
func (c *MockClient) ListUsers(context.Context) ([]userboard.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]userboard.User{}, c.data.Users...), nil
}

// AgeGroupStats returns a copy of the seeded stats. Local writes do not change them.
func (c *MockClient) AgeGroupStats(context.Context) (userboard.AgeGroupStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Stats.Clone(), nil
}

// CreateUser appends the user locally. Names stay unique.
func (c *MockClient) CreateUser(_ context.Context, user userboard.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slices.ContainsFunc(c.data.Users, func(u userboard.User) bool { return u.Name == user.Name }) {
		return &Error{
			Kind:    KindConflict,
			Op:      "create user",
			Message: fmt.Sprintf("User with name '%s' already exists.", user.Name),
		}
	}
	c.data.Users = append(c.data.Users, user)
	return nil
}

// DeleteUser removes every local user with the name. Unknown names are ignored.
func (c *MockClient) DeleteUser(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Users = slices.DeleteFunc(c.data.Users, func(u userboard.User) bool { return u.Name == name })
	return nil
}

// UploadCSV simulates success without reading the file.
func (c *MockClient) UploadCSV(context.Context, userboard.CSVUpload) (userboard.UploadResult, error) {
	return userboard.UploadResult{Simulated: true}, nil
}
