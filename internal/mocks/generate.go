// Package mocks provides mock implementations of the coffeehouse ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	catalog := mocks.NewMockCatalog(ctrl)
//	catalog.EXPECT().GetProduct(gomock.Any(), "latte").Return(product, nil)
package mocks

// Backend ports plus the cart store and role resolver.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/target/coffeehouse/internal/ports CartStore,Catalog,OrderBook,PaymentLedger,RoleResolver,UserDirectory
