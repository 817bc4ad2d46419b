package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rental-service/internal/rabbitmq"
)

// PublisherMock stands in for the AMQP bus in fan-out and audit tests.
type PublisherMock struct {
	mock.Mock
}

var _ rabbitmq.Publisher = (*PublisherMock)(nil)

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	return m.Called(ctx, routingKey, event).Error(0)
}

func (m *PublisherMock) Close() error {
	return m.Called().Error(0)
}
