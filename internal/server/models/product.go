package models

import "time"

// MaxDescriptionLength bounds Product.Description, in characters.
const MaxDescriptionLength = 2000

// Product is a catalog item owned by the admin that created it.
type Product struct {
	ID             string    `json:"id"`
	AdminID        string    `json:"associated_admin_user_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          int64     `json:"price"`
	Quantity       int64     `json:"quantity"`
	HeaderImageURL string    `json:"product_header_image"`
	CreatedAt      time.Time `json:"date_posted"`
}

// ProductPatch carries the fields of a partial update. Nil means unchanged.
type ProductPatch struct {
	Name           *string
	Description    *string
	Price          *int64
	Quantity       *int64
	HeaderImageURL *string
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Quantity == nil && p.HeaderImageURL == nil
}
