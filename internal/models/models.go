package models

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{}, &RefreshToken{},
		&Product{}, &VisitStat{}, &History{},
		&CartItem{}, &WishlistItem{}, &Address{},
		&Order{}, &OrderProduct{}, &Payment{}, &Refund{},
		&Point{}, &PointHistory{},
		&Review{}, &ReviewSummary{}, &Question{}, &Answer{},
	}
}
