package entities

import "github.com/shopspring/decimal"

// OrderTotal is the sum of unit price times quantity, taxed and rounded to cents.
func OrderTotal(items []LineItem, taxRate decimal.Decimal) decimal.Decimal {
	net := decimal.Zero
	for _, item := range items {
		net = net.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return net.Mul(decimal.NewFromInt(1).Add(taxRate)).Round(2)
}

type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{
		Amount:   amount.StringFixed(2),
		Currency: currency,
	}
}
