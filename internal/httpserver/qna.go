package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

type QnAHTTP struct {
	Svc *service.QnAService
}

func (h *QnAHTTP) Ask(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "qna.ask")

	productID, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "ask_question_error", err.Error(), err)
	}
	var req transport.QuestionRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "ask_question_error", "invalid body", err)
	}

	q, err := h.Svc.Ask(ctx, authmw.UserID(c), productID, req)
	if err != nil {
		return fail(l, "ask_question_error", err)
	}

	l.Info("ask_question_success", "question_id", q.ID, "product_id", productID)
	return c.JSON(http.StatusCreated, q)
}

func (h *QnAHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "qna.list")

	productID, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "list_questions_error", err.Error(), err)
	}

	p := pageParams(c)
	total, items, err := h.Svc.List(ctx, productID, authmw.UserID(c), authmw.IsAdmin(c), p.Offset, p.Limit)
	if err != nil {
		return fail(l, "list_questions_error", err)
	}
	return paged(c, p, total, items)
}

func (h *QnAHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "qna.delete")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_question_error", err.Error(), err)
	}
	if err := h.Svc.Delete(ctx, authmw.UserID(c), authmw.IsAdmin(c), id); err != nil {
		return fail(l, "delete_question_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *QnAHTTP) Answer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "qna.answer")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "answer_question_error", err.Error(), err)
	}
	var req transport.AnswerRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "answer_question_error", "invalid body", err)
	}

	a, err := h.Svc.Answer(ctx, authmw.UserID(c), id, req.Content)
	if err != nil {
		return fail(l, "answer_question_error", err)
	}

	l.Info("answer_question_success", "question_id", id)
	return c.JSON(http.StatusCreated, a)
}
