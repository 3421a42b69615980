package ports

import "context"

// Notifier delivers one payment event per successfully paid destination.
// Delivery itself (email, telegram, ...) is a downstream concern.
type Notifier interface {
	NotifyPayment(ctx context.Context, address, amount string) error
	Close()
}
