package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"handcraft/internal/domain/entity"
	"handcraft/internal/domain/repository"
	apperrors "handcraft/pkg/errors"
)

// In-memory implementations of the repository interfaces. Used when the
// service runs with STORE=memory (local development) and throughout the
// tests. Every read returns a deep copy so callers never share state with
// the store.

type MemoryChatRepository struct {
	mu    sync.RWMutex
	chats map[string]*entity.Chat
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{chats: make(map[string]*entity.Chat)}
}

func cloneChat(c *entity.Chat) *entity.Chat {
	cp := *c
	cp.Messages = make([]entity.Message, len(c.Messages))
	for i, m := range c.Messages {
		cp.Messages[i] = m
		cp.Messages[i].ReadBy = append([]string(nil), m.ReadBy...)
	}
	return &cp
}

func (r *MemoryChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	now := time.Now()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	chat.UpdatedAt = now

	r.chats[chat.ID] = cloneChat(chat)
	return nil
}

func (r *MemoryChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chat, ok := r.chats[id]
	if !ok {
		return nil, apperrors.NotFound("Chat", nil)
	}
	return cloneChat(chat), nil
}

func (r *MemoryChatRepository) GetByParticipantsAndProduct(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, chat := range r.chats {
		if chat.Buyer.ID == buyerID && chat.Seller.ID == sellerID && chat.Product.ID == productID {
			return cloneChat(chat), nil
		}
	}
	return nil, apperrors.NotFound("Chat", nil)
}

func (r *MemoryChatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chats []*entity.Chat
	for _, chat := range r.chats {
		if chat.IsParticipant(userID) {
			chats = append(chats, cloneChat(chat))
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func (r *MemoryChatRepository) Update(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chats[chat.ID]; !ok {
		return apperrors.NotFound("Chat", nil)
	}
	r.chats[chat.ID] = cloneChat(chat)
	return nil
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*entity.User)}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("User", nil)
	}
	cp := *user
	return &cp, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("User", nil)
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return apperrors.NotFound("User", nil)
	}
	user.UpdatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]*entity.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[string]*entity.Product)}
}

func (r *MemoryProductRepository) Create(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *MemoryProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("Product", nil)
	}
	cp := *product
	return &cp, nil
}

func (r *MemoryProductRepository) List(ctx context.Context, category string, limit, offset int) ([]*entity.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*entity.Product
	for _, product := range r.products {
		if category != "" && product.Category != category {
			continue
		}
		cp := *product
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

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

func (r *MemoryProductRepository) ListBySellerID(ctx context.Context, sellerID string) ([]*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var products []*entity.Product
	for _, product := range r.products {
		if product.SellerID == sellerID {
			cp := *product
			products = append(products, &cp)
		}
	}
	return products, nil
}

func (r *MemoryProductRepository) Update(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return apperrors.NotFound("Product", nil)
	}
	product.UpdatedAt = time.Now()
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.products, id)
	return nil
}

type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*entity.Cart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string]*entity.Cart)}
}

func (r *MemoryCartRepository) GetByUserID(ctx context.Context, userID string) (*entity.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[userID]
	if !ok {
		return &entity.Cart{UserID: userID, Items: []entity.CartItem{}}, nil
	}
	cp := *cart
	cp.Items = append([]entity.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (r *MemoryCartRepository) Save(ctx context.Context, cart *entity.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart.UpdatedAt = time.Now()
	cp := *cart
	cp.Items = append([]entity.CartItem(nil), cart.Items...)
	r.carts[cart.UserID] = &cp
	return nil
}

type MemoryPasswordResetRepository struct {
	mu     sync.RWMutex
	resets map[string]*entity.PasswordReset
}

func NewMemoryPasswordResetRepository() *MemoryPasswordResetRepository {
	return &MemoryPasswordResetRepository{resets: make(map[string]*entity.PasswordReset)}
}

func (r *MemoryPasswordResetRepository) Save(ctx context.Context, reset *entity.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *reset
	r.resets[reset.Email] = &cp
	return nil
}

func (r *MemoryPasswordResetRepository) GetByEmail(ctx context.Context, email string) (*entity.PasswordReset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reset, ok := r.resets[email]
	if !ok {
		return nil, apperrors.NotFound("Password reset", nil)
	}
	cp := *reset
	return &cp, nil
}

func (r *MemoryPasswordResetRepository) Delete(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.resets, email)
	return nil
}

var (
	_ repository.ChatRepository          = (*MemoryChatRepository)(nil)
	_ repository.UserRepository          = (*MemoryUserRepository)(nil)
	_ repository.ProductRepository       = (*MemoryProductRepository)(nil)
	_ repository.CartRepository          = (*MemoryCartRepository)(nil)
	_ repository.PasswordResetRepository = (*MemoryPasswordResetRepository)(nil)
)
