package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type NotifyHTTP struct {
	Mail    *service.MailService
	Chatbot *service.ChatbotService
}

func (h *NotifyHTTP) SendMail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "mail.send")

	var req transport.MailRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "send_mail_error", "invalid body", err)
	}
	if err := h.Mail.Send(ctx, req); err != nil {
		return fail(l, "send_mail_error", err)
	}

	l.Info("send_mail_success", "to", req.To)
	return c.NoContent(http.StatusAccepted)
}

func (h *NotifyHTTP) Chat(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "chatbot.chat")

	var req transport.ChatRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "chat_error", "invalid body", err)
	}

	reply, err := h.Chatbot.Chat(ctx, req.Message)
	if err != nil {
		return fail(l, "chat_error", err)
	}
	return c.JSON(http.StatusOK, transport.ChatResponse{Reply: reply})
}
