// Package mail renders and sends the join invitation email.
package mail

import (
	"context"
)

type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Nop accepts and drops every message.
type Nop struct{}

func (Nop) Send(context.Context, Message) error { return nil }
