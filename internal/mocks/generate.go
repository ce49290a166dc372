// Package mocks provides generated mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks
// for the auth port interfaces. The mocks are generated using go:generate
// directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockUsers := mocks.NewMockUserStore(ctrl)
//	mockUsers.EXPECT().GetByEmail(gomock.Any(), "a@x.com").Return(user, nil)
package mocks

// Generate mocks for the auth port interfaces from internal/ports.
// This creates MockTokenService, MockPasswordHasher, MockUserStore, and
// MockResetLimiter in auth_ports_mock.go.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=auth_ports_mock.go github.com/beranamag/berana/internal/ports TokenService,PasswordHasher,UserStore,ResetLimiter
