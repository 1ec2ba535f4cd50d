package transport

type CreateProductRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=10000"`
	Category    string `json:"category"    validate:"max=64"`
	Price       int64  `json:"price"       validate:"gte=0"`
	Stock       int64  `json:"stock"       validate:"gte=0"`
}

type PatchProductRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	Category    *string `json:"category"    validate:"omitempty,max=64"`
	Price       *int64  `json:"price"       validate:"omitempty,gte=0"`
	Stock       *int64  `json:"stock"       validate:"omitempty,gte=0"`
}

type CartItemRequest struct {
	ProductID uint  `json:"product_id" validate:"required"`
	Quantity  int64 `json:"quantity"   validate:"required,gte=1"`
}

type CartQuantityRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gte=1"`
}

type WishlistRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
}

type AddressRequest struct {
	Name      string `json:"name"       validate:"required,max=50"`
	Recipient string `json:"recipient"  validate:"required,max=50"`
	Phone     string `json:"phone"      validate:"required,max=32"`
	ZipCode   string `json:"zip_code"   validate:"required,max=16"`
	Line1     string `json:"line1"      validate:"required,max=255"`
	Line2     string `json:"line2"      validate:"max=255"`
	IsDefault bool   `json:"is_default"`
}
