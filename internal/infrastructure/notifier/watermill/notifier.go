package watermillnotifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	"github.com/cryptonote-pool/payoutd/internal/core/ports"
)

// DefaultTopic is the topic payment events are published on.
const DefaultTopic = "payments"

// PaymentEvent is the payload published for every paid destination.
type PaymentEvent struct {
	Address      string `json:"address"`
	ShortAddress string `json:"shortAddress"`
	Amount       string `json:"amount"`
}

type notifier struct {
	publisher message.Publisher
	topic     string
}

// NewNotifier wraps a watermill publisher. Subscribers (email, telegram, ...)
// attach downstream and are out of the settlement core's scope.
func NewNotifier(publisher message.Publisher, topic string) ports.Notifier {
	if topic == "" {
		topic = DefaultTopic
	}
	return &notifier{publisher: publisher, topic: topic}
}

// NewInProcessNotifier returns a notifier backed by an in-process gochannel
// pubsub.
func NewInProcessNotifier(topic string) ports.Notifier {
	publisher := gochannel.NewGoChannel(
		gochannel.Config{}, watermill.NewStdLogger(false, false),
	)
	return NewNotifier(publisher, topic)
}

func (n *notifier) NotifyPayment(_ context.Context, address, amount string) error {
	payload, err := json.Marshal(PaymentEvent{
		Address:      address,
		ShortAddress: domain.ShortAddress(address),
		Amount:       amount,
	})
	if err != nil {
		return fmt.Errorf("failed to encode payment event: %w", err)
	}

	return n.publisher.Publish(n.topic, message.NewMessage(watermill.NewUUID(), payload))
}

func (n *notifier) Close() {
	// nolint:errcheck
	n.publisher.Close()
}
