package usecase

import (
	"context"

	"handcraft/internal/domain/entity"
	"handcraft/internal/domain/repository"
	apperrors "handcraft/pkg/errors"
)

type CartUseCase struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartUseCase(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartUseCase {
	return &CartUseCase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (uc *CartUseCase) GetCart(ctx context.Context, userID string) (*entity.Cart, error) {
	return uc.cartRepo.GetByUserID(ctx, userID)
}

func (uc *CartUseCase) AddItem(ctx context.Context, userID, productID string, quantity int) (*entity.Cart, error) {
	if quantity <= 0 {
		return nil, apperrors.BadRequest("Quantity must be positive", nil)
	}

	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID == userID {
		return nil, apperrors.BadRequest("You cannot buy your own product", nil)
	}

	cart, err := uc.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if item := cart.FindItem(productID); item != nil {
		item.Quantity += quantity
	} else {
		cart.Items = append(cart.Items, entity.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Quantity:  quantity,
		})
	}

	if err := uc.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem sets an item's quantity; zero or less removes it.
func (uc *CartUseCase) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*entity.Cart, error) {
	cart, err := uc.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := cart.FindItem(productID)
	if item == nil {
		return nil, apperrors.NotFound("Cart item", nil)
	}

	if quantity <= 0 {
		cart.RemoveItem(productID)
	} else {
		item.Quantity = quantity
	}

	if err := uc.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (uc *CartUseCase) RemoveItem(ctx context.Context, userID, productID string) (*entity.Cart, error) {
	cart, err := uc.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cart.RemoveItem(productID) {
		return nil, apperrors.NotFound("Cart item", nil)
	}

	if err := uc.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (uc *CartUseCase) Clear(ctx context.Context, userID string) error {
	cart, err := uc.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	cart.Items = []entity.CartItem{}
	return uc.cartRepo.Save(ctx, cart)
}
