package entity

import "time"

type Product struct {
	ID          string    `json:"_id" firestore:"id"`
	SellerID    string    `json:"sellerId" firestore:"sellerId"`
	Name        string    `json:"name" firestore:"name"`
	Description string    `json:"description,omitempty" firestore:"description,omitempty"`
	Category    string    `json:"category,omitempty" firestore:"category,omitempty"`
	Price       float64   `json:"price" firestore:"price"`
	Stock       int       `json:"stock" firestore:"stock"`
	// Image is a plain URL. The service never stores image bytes.
	Image     string    `json:"image,omitempty" firestore:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// AsSummary converts a product to the snapshot embedded in conversations.
func (p *Product) AsSummary() ProductSummary {
	return ProductSummary{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Image: p.Image,
	}
}
