package sales

import "github.com/shopspring/decimal"

// maxOrderTotal is the first amount that no longer fits total_amount's
// decimal(14,2) column.
var maxOrderTotal = decimal.New(1, 12)

// OrderTotal is the only way an order's total_amount is produced.
func OrderTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

func checkOrderTotal(total decimal.Decimal) error {
	if total.GreaterThanOrEqual(maxOrderTotal) {
		return ErrTotalTooLarge
	}
	return nil
}
