package transport

type CreateReviewRequest struct {
	ProductID uint   `json:"product_id" validate:"required"`
	OrderID   uint   `json:"order_id"   validate:"required"`
	Rating    int    `json:"rating"     validate:"required,min=1,max=5"`
	Content   string `json:"content"    validate:"required,max=2000"`
}

type QuestionRequest struct {
	Title   string `json:"title"   validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=2000"`
	Secret  bool   `json:"secret"`
}

type AnswerRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type MailRequest struct {
	To      string `json:"to"      validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body"    validate:"required"`
}

type ChatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
