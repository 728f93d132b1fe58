package models

import "math"

// MaxLineQuantity — верхняя граница количества в строке корзины и заказа.
// Держит произведение цены на количество в пределах int64 и колонки INT.
const MaxLineQuantity = 9999

// LineAmount возвращает price × quantity или false при переполнении int64.
func LineAmount(price int64, quantity int) (int64, bool) {
	if price < 0 || quantity < 0 {
		return 0, false
	}
	q := int64(quantity)
	if q != 0 && price > math.MaxInt64/q {
		return 0, false
	}
	return price * q, true
}

// AddAmount складывает неотрицательные суммы или возвращает false при переполнении.
func AddAmount(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
