package usecase

import (
	"context"

	"handcraft/internal/domain/entity"
	"handcraft/internal/domain/repository"
	apperrors "handcraft/pkg/errors"
	"handcraft/pkg/logger"
)

type ProductUseCase struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

func NewProductUseCase(productRepo repository.ProductRepository, userRepo repository.UserRepository) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Image       string  `json:"image" validate:"omitempty,url"`
}

func (uc *ProductUseCase) Create(ctx context.Context, sellerID string, input ProductInput) (*entity.Product, error) {
	product := &entity.Product{
		SellerID:    sellerID,
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		Stock:       input.Stock,
		Image:       input.Image,
	}
	if err := uc.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	// First listing flips the account to a seller account.
	user, err := uc.userRepo.GetByID(ctx, sellerID)
	if err == nil && !user.IsSeller {
		user.IsSeller = true
		if err := uc.userRepo.Update(ctx, user); err != nil {
			logger.Warn("product: failed to mark user %s as seller: %v", sellerID, err)
		}
	}

	logger.Info("product: created %s by seller %s", product.ID, sellerID)
	return product, nil
}

func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return uc.productRepo.GetByID(ctx, id)
}

func (uc *ProductUseCase) List(ctx context.Context, category string, limit, offset int) ([]*entity.Product, int, error) {
	return uc.productRepo.List(ctx, category, limit, offset)
}

func (uc *ProductUseCase) ListBySeller(ctx context.Context, sellerID string) ([]*entity.Product, error) {
	return uc.productRepo.ListBySellerID(ctx, sellerID)
}

func (uc *ProductUseCase) Update(ctx context.Context, sellerID, productID string, input ProductInput) (*entity.Product, error) {
	product, err := uc.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Category = input.Category
	product.Price = input.Price
	product.Stock = input.Stock
	product.Image = input.Image

	if err := uc.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (uc *ProductUseCase) Delete(ctx context.Context, sellerID, productID string) error {
	if _, err := uc.ownedProduct(ctx, sellerID, productID); err != nil {
		return err
	}
	return uc.productRepo.Delete(ctx, productID)
}

func (uc *ProductUseCase) ownedProduct(ctx context.Context, sellerID, productID string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, apperrors.Forbidden("You do not own this product", nil)
	}
	return product, nil
}
