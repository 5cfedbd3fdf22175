// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

// Package mocks provides testify mocks for the account collaborator interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/accountd/accountd/internal/account"
)

type cleanupT interface {
	mock.TestingT
	Cleanup(func())
}

// MockRepository is a mock account.Repository.
type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a MockRepository whose expectations are asserted on cleanup.
func NewMockRepository(t cleanupT) *MockRepository {
	m := &MockRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func accountResult(args mock.Arguments) (*account.Account, error) {
	var a *account.Account
	if v := args.Get(0); v != nil {
		a = v.(*account.Account)
	}
	return a, args.Error(1)
}

// Create provides a mock function.
func (m *MockRepository) Create(ctx context.Context, a *account.Account) error {
	return m.Called(ctx, a).Error(0)
}

// GetByEmail provides a mock function.
func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	return accountResult(m.Called(ctx, email))
}

// GetByNationalID provides a mock function.
func (m *MockRepository) GetByNationalID(ctx context.Context, nationalID string) (*account.Account, error) {
	return accountResult(m.Called(ctx, nationalID))
}

// GetByEmailAndResetCode provides a mock function.
func (m *MockRepository) GetByEmailAndResetCode(ctx context.Context, email string, code int) (*account.Account, error) {
	return accountResult(m.Called(ctx, email, code))
}

// Update provides a mock function.
func (m *MockRepository) Update(ctx context.Context, a *account.Account) error {
	return m.Called(ctx, a).Error(0)
}

// MockNotifier is a mock account.Notifier.
type MockNotifier struct {
	mock.Mock
}

// NewMockNotifier creates a MockNotifier whose expectations are asserted on cleanup.
func NewMockNotifier(t cleanupT) *MockNotifier {
	m := &MockNotifier{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Send provides a mock function.
func (m *MockNotifier) Send(ctx context.Context, msg account.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// MockPasswordHasher is a mock account.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are asserted on cleanup.
func NewMockPasswordHasher(t cleanupT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify provides a mock function.
func (m *MockPasswordHasher) Verify(password, digest string) (bool, error) {
	args := m.Called(password, digest)
	return args.Bool(0), args.Error(1)
}

// NeedsUpgrade provides a mock function.
func (m *MockPasswordHasher) NeedsUpgrade(digest string) bool {
	return m.Called(digest).Bool(0)
}

// MockChallengeGenerator is a mock account.ChallengeGenerator.
type MockChallengeGenerator struct {
	mock.Mock
}

// NewMockChallengeGenerator creates a MockChallengeGenerator whose expectations are asserted on cleanup.
func NewMockChallengeGenerator(t cleanupT) *MockChallengeGenerator {
	m := &MockChallengeGenerator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Generate provides a mock function.
func (m *MockChallengeGenerator) Generate() (account.ResetChallenge, error) {
	args := m.Called()
	return args.Get(0).(account.ResetChallenge), args.Error(1)
}

var (
	_ account.Repository         = (*MockRepository)(nil)
	_ account.Notifier           = (*MockNotifier)(nil)
	_ account.PasswordHasher     = (*MockPasswordHasher)(nil)
	_ account.ChallengeGenerator = (*MockChallengeGenerator)(nil)
)
