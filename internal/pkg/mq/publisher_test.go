package mq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_EmptyURLIsNop(t *testing.T) {
	p, err := NewPublisher("", "ticketing.events")
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.PublishJSON(context.Background(), KeyPaymentCompleted, PaymentEvent{BookingID: "b-1"}))
	assert.NoError(t, p.Close())
}

func TestNewPublisher_BadURL(t *testing.T) {
	_, err := NewPublisher("amqp://127.0.0.1:1/", "ticketing.events")
	assert.Error(t, err)
}
