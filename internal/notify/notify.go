// Package notify delivers composed messages and diagnostic text to channels.
package notify

import (
	"context"

	"go.uber.org/multierr"

	"poolNotifier/internal/model"
)

// MessageSender posts structured notifications to the primary channel.
type MessageSender interface {
	SendMessage(ctx context.Context, msg model.NotificationMessage) error
}

// TextSender posts plain text to the diagnostic channel.
type TextSender interface {
	SendText(ctx context.Context, text string) error
}

// Sender can deliver both kinds of payload.
type Sender interface {
	MessageSender
	TextSender
}

// Fanout forwards every payload to all of its senders and combines their errors.
type Fanout []Sender

func (f Fanout) SendMessage(ctx context.Context, msg model.NotificationMessage) error {
	var err error
	for _, s := range f {
		err = multierr.Append(err, s.SendMessage(ctx, msg))
	}
	return err
}

func (f Fanout) SendText(ctx context.Context, text string) error {
	var err error
	for _, s := range f {
		err = multierr.Append(err, s.SendText(ctx, text))
	}
	return err
}
