package transport

type CreateOrderItem struct {
	ProductID uint  `json:"product_id" validate:"required"`
	Quantity  int64 `json:"quantity"   validate:"required,gte=1"`
}

type CreateOrderRequest struct {
	Items     []CreateOrderItem `json:"items"      validate:"omitempty,dive"`
	FromCart  bool              `json:"from_cart"`
	AddressID uint              `json:"address_id"`
}

type PayRequest struct {
	Method    string `json:"method"     validate:"required,max=32"`
	UsePoints int64  `json:"use_points" validate:"gte=0"`
}

type RefundRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type RejectRefundRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type AdjustPointsRequest struct {
	Amount int64  `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"required,max=255"`
}
