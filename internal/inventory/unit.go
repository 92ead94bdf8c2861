package inventory

import "fmt"

// Unit is the sellable unit a cart line draws stock from. Exactly one of
// SizeUnit, ProductUnit or Untracked is chosen per line before any write.
type Unit interface {
	Product() int64
	fmt.Stringer
	isUnit()
}

// SizeUnit is a product_sizes row with managed (non-null) stock.
type SizeUnit struct {
	ProductID int64
	Size      string
}

// ProductUnit is the coarse products.stock column.
type ProductUnit struct {
	ProductID int64
}

// Untracked means nobody manages stock for this product.
type Untracked struct {
	ProductID int64
}

func (u SizeUnit) Product() int64    { return u.ProductID }
func (u ProductUnit) Product() int64 { return u.ProductID }
func (u Untracked) Product() int64   { return u.ProductID }

func (u SizeUnit) String() string    { return fmt.Sprintf("size:%d/%s", u.ProductID, u.Size) }
func (u ProductUnit) String() string { return fmt.Sprintf("product:%d", u.ProductID) }
func (u Untracked) String() string   { return fmt.Sprintf("untracked:%d", u.ProductID) }

func (SizeUnit) isUnit()    {}
func (ProductUnit) isUnit() {}
func (Untracked) isUnit()   {}

// Line is the part of a cart line the store needs.
type Line struct {
	ProductID int64
	Size      string
	Quantity  int
}

// Outcome reports what a decrement did. Applied is false for untracked
// units and for tracked units that could not cover the quantity.
type Outcome struct {
	Unit    Unit
	Applied bool
}

// Oversold is true when stock was tracked but the decrement did not apply.
func (o Outcome) Oversold() bool {
	_, untracked := o.Unit.(Untracked)
	return !o.Applied && !untracked
}

// resolveUnit applies the tie-break: managed size row, then managed product
// stock, then untracked. The unit is fixed before decrementing: a size row too
// short to cover the line is oversold, never redirected to products.stock.
func resolveUnit(productID int64, size string, sizeRowFound bool, sizeStock, productStock *int64) (Unit, *int64) {
	if size != "" && sizeRowFound && sizeStock != nil {
		return SizeUnit{ProductID: productID, Size: size}, sizeStock
	}
	if productStock != nil {
		return ProductUnit{ProductID: productID}, productStock
	}
	return Untracked{ProductID: productID}, nil
}
