package openaicompat

import (
	"context"
	"fmt"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// Responder produces contextual chat replies from the recent conversation
// history plus an optional turn-specific system addendum.
type Responder struct {
	client *Client
}

func NewResponder(client *Client) *Responder {
	return &Responder{client: client}
}

func (r *Responder) Reply(ctx context.Context, history []domain.Message, extraSystem string) (string, error) {
	messages := make([]chatMessage, 0, maxContextMessages+2)
	messages = append(messages, systemMessage(coreSystemPrompt))
	if extraSystem != "" {
		messages = append(messages, systemMessage(extraSystem))
	}
	messages = append(messages, compactHistory(history)...)

	reply, err := r.client.completeText(ctx, r.client.textModel, messages, "chat_reply")
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", fmt.Errorf("chat reply is empty")
	}
	return reply, nil
}
