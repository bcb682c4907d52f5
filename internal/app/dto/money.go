package dto

import "carrental/internal/domain/shared/money"

// MoneyDTO carries minor units plus a display string rounded to two decimals.
type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

func Money(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency, Display: m.Decimal()}
}
