package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"handcraft/internal/domain/entity"
	"handcraft/internal/domain/repository"
	apperrors "handcraft/pkg/errors"
)

const productCollection = "products"

type firestoreProductRepository struct {
	client *firestore.Client
}

func NewFirestoreProductRepository(client *firestore.Client) repository.ProductRepository {
	return &firestoreProductRepository{client: client}
}

func (r *firestoreProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := r.client.Collection(productCollection).Doc(product.ID).Set(ctx, product)
	if err != nil {
		return apperrors.Internal("failed to create product", err)
	}
	return nil
}

func (r *firestoreProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	doc, err := r.client.Collection(productCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperrors.NotFound("Product", err)
		}
		return nil, apperrors.Internal("failed to get product", err)
	}

	var product entity.Product
	if err := doc.DataTo(&product); err != nil {
		return nil, apperrors.Internal("failed to parse product data", err)
	}
	return &product, nil
}

func (r *firestoreProductRepository) List(ctx context.Context, category string, limit, offset int) ([]*entity.Product, int, error) {
	query := r.client.Collection(productCollection).Query
	if category != "" {
		query = query.Where("category", "==", category)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var all []*entity.Product
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, apperrors.Internal("failed to list products", err)
		}

		var product entity.Product
		if err := doc.DataTo(&product); err != nil {
			return nil, 0, apperrors.Internal("failed to parse product data", err)
		}
		all = append(all, &product)
	}

	total := len(all)
	if offset >= total {
		return []*entity.Product{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *firestoreProductRepository) ListBySellerID(ctx context.Context, sellerID string) ([]*entity.Product, error) {
	iter := r.client.Collection(productCollection).Where("sellerId", "==", sellerID).Documents(ctx)
	defer iter.Stop()

	var products []*entity.Product
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperrors.Internal("failed to list seller products", err)
		}

		var product entity.Product
		if err := doc.DataTo(&product); err != nil {
			return nil, apperrors.Internal("failed to parse product data", err)
		}
		products = append(products, &product)
	}
	return products, nil
}

func (r *firestoreProductRepository) Update(ctx context.Context, product *entity.Product) error {
	product.UpdatedAt = time.Now()

	_, err := r.client.Collection(productCollection).Doc(product.ID).Set(ctx, product)
	if err != nil {
		return apperrors.Internal("failed to update product", err)
	}
	return nil
}

func (r *firestoreProductRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection(productCollection).Doc(id).Delete(ctx)
	if err != nil {
		return apperrors.Internal("failed to delete product", err)
	}
	return nil
}
