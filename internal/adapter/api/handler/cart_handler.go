package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"handcraft/internal/adapter/api/middleware"
	"handcraft/internal/usecase"
	"handcraft/pkg/response"
)

type CartHandler struct {
	cartUseCase *usecase.CartUseCase
}

func NewCartHandler(cartUseCase *usecase.CartUseCase) *CartHandler {
	return &CartHandler{cartUseCase: cartUseCase}
}

func (h *CartHandler) Get(c echo.Context) error {
	cart, err := h.cartUseCase.GetCart(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, http.StatusOK, cart)
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

func (h *CartHandler) AddItem(c echo.Context) error {
	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	cart, err := h.cartUseCase.AddItem(c.Request().Context(), middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, http.StatusOK, cart)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	cart, err := h.cartUseCase.UpdateItem(c.Request().Context(), middleware.UserID(c), c.Param("productId"), req.Quantity)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	cart, err := h.cartUseCase.RemoveItem(c.Request().Context(), middleware.UserID(c), c.Param("productId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, http.StatusOK, cart)
}

func (h *CartHandler) Clear(c echo.Context) error {
	if err := h.cartUseCase.Clear(c.Request().Context(), middleware.UserID(c)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, http.StatusOK, map[string]string{"message": "Cart cleared"})
}
