// Package cart реализует корзину покупателя: упорядоченный набор строк,
// уникальных по product_id, с пересчётом итогов при каждом чтении.
// Сама корзина не имеет сетевых эффектов; хранение вынесено в Store.
package cart

import (
	"errors"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

var (
	// ErrNotInCart — товара нет в корзине.
	ErrNotInCart = errors.New("product is not in the cart")
	// ErrLimit — количество или итог корзины вышли за допустимые пределы.
	ErrLimit = errors.New("cart limit exceeded")
)

// Line — строка корзины.
type Line struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageRef  string `json:"image_ref,omitempty"`
	Category  string `json:"category,omitempty"`
}

// Cart — корзина. Нулевое значение — пустая корзина.
type Cart struct {
	lines []Line
}

// New восстанавливает корзину из сохранённых строк. Строки с количеством
// вне [1, MaxLineQuantity], повторы product_id и строки, переполняющие итог,
// отбрасываются, чтобы инварианты держались и для повреждённых данных.
func New(lines []Line) *Cart {
	c := &Cart{}
	for _, l := range lines {
		if l.Quantity < 1 || l.Quantity > models.MaxLineQuantity || c.index(l.ProductID) >= 0 {
			continue
		}
		c.lines = append(c.lines, l)
		if _, ok := c.sum(); !ok {
			c.lines = c.lines[:len(c.lines)-1]
		}
	}
	return c
}

// Add добавляет товар или увеличивает количество на 1, если он уже есть.
// ErrLimit, если количество или итог выйдут за пределы; корзина не меняется.
func (c *Cart) Add(p models.Product) error {
	if i := c.index(p.ID); i >= 0 {
		return c.setLine(i, c.lines[i].Quantity+1)
	}
	c.lines = append(c.lines, Line{
		ProductID: p.ID,
		Title:     p.Title,
		UnitPrice: p.Price,
		Quantity:  1,
		ImageRef:  p.ImageRef,
		Category:  p.Category,
	})
	if _, ok := c.sum(); !ok {
		c.lines = c.lines[:len(c.lines)-1]
		return ErrLimit
	}
	return nil
}

// Remove удаляет строку товара. Отсутствующий товар — не ошибка.
func (c *Cart) Remove(productID string) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

// SetQuantity задаёт количество; qty < 1 эквивалентно Remove.
// ErrNotInCart, если товара нет; ErrLimit, если qty больше MaxLineQuantity
// или итог переполнится.
func (c *Cart) SetQuantity(productID string, qty int) error {
	i := c.index(productID)
	if i < 0 {
		return ErrNotInCart
	}
	if qty < 1 {
		c.Remove(productID)
		return nil
	}
	return c.setLine(i, qty)
}

func (c *Cart) setLine(i, qty int) error {
	if qty > models.MaxLineQuantity {
		return ErrLimit
	}
	prev := c.lines[i].Quantity
	c.lines[i].Quantity = qty
	if _, ok := c.sum(); !ok {
		c.lines[i].Quantity = prev
		return ErrLimit
	}
	return nil
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.lines = nil
}

// Total — сумма unit_price × quantity по всем строкам. Мутации не дают
// итогу переполниться, поэтому сумма всегда точна.
func (c *Cart) Total() int64 {
	total, _ := c.sum()
	return total
}

func (c *Cart) sum() (int64, bool) {
	var total int64
	for _, l := range c.lines {
		amount, ok := models.LineAmount(l.UnitPrice, l.Quantity)
		if !ok {
			return 0, false
		}
		if total, ok = models.AddAmount(total, amount); !ok {
			return 0, false
		}
	}
	return total, true
}

// Count — общее количество единиц товара.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Lines возвращает копию строк в порядке добавления.
func (c *Cart) Lines() []Line {
	res := make([]Line, len(c.lines))
	copy(res, c.lines)
	return res
}

// IsEmpty сообщает, пуста ли корзина.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) index(productID string) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// View — корзина в ответе API.
type View struct {
	Lines []Line `json:"lines"`
	Total int64  `json:"total"`
	Count int    `json:"count"`
}

// View возвращает строки и свежепосчитанные итоги.
func (c *Cart) View() View {
	return View{Lines: c.Lines(), Total: c.Total(), Count: c.Count()}
}
