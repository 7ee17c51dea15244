package service_test

import (
	"context"
	"time"

	"github.com/adivardhan/storefront-api/pkg/razorpay"
	"github.com/adivardhan/storefront-api/pkg/sendgrid"
	"github.com/stretchr/testify/mock"
)

// Hand-rolled mocks for the outward-facing dependencies of the service
// layer: the payment gateway, the mailer and the cache.

type mockGateway struct {
	mock.Mock
}

func newMockGateway() *mockGateway {
	return &mockGateway{}
}

func (m *mockGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*razorpay.Order, error) {
	args := m.Called(ctx, amount, currency, receipt)

	var order *razorpay.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*razorpay.Order)
	}

	return order, args.Error(1)
}

func (m *mockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	args := m.Called(orderID, paymentID, signature)

	return args.Bool(0)
}

func (m *mockGateway) KeyID() string {
	args := m.Called()

	return args.String(0)
}

type mockEmailService struct {
	mock.Mock
}

func newMockEmailService() *mockEmailService {
	return &mockEmailService{}
}

func (m *mockEmailService) Send(ctx context.Context, msg *sendgrid.Message) error {
	args := m.Called(ctx, msg)

	return args.Error(0)
}

type mockCache struct {
	mock.Mock
}

func newMockCache() *mockCache {
	return &mockCache{}
}

func (m *mockCache) Get(ctx context.Context, key string, value any) (bool, error) {
	args := m.Called(ctx, key, value)

	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)

	return args.Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)

	return args.Error(0)
}

func (m *mockCache) Close() error {
	args := m.Called()

	return args.Error(0)
}
