package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/transport"
)

const chatbotSystemPrompt = "You are the shopping assistant of an online store. " +
	"Answer briefly and politely. Help with products, orders, delivery and returns. " +
	"If you do not know the answer, suggest contacting support."

type MailService struct {
	Mailer Mailer
}

func (s *MailService) Send(ctx context.Context, req transport.MailRequest) error {
	if s.Mailer == nil {
		return fmt.Errorf("%w: mail is not configured", ErrUpstream)
	}
	if err := s.Mailer.Send(ctx, req.To, req.Subject, req.Body); err != nil {
		return fmt.Errorf("%w: send mail: %v", ErrUpstream, err)
	}
	return nil
}

type ChatbotService struct {
	AI Completer
}

func (s *ChatbotService) Chat(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", validationf("message is required")
	}
	if s.AI == nil {
		return "", fmt.Errorf("%w: chatbot is not configured", ErrUpstream)
	}
	reply, err := s.AI.Complete(ctx, chatbotSystemPrompt, message)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return strings.TrimSpace(reply), nil
}
