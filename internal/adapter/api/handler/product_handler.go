package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"handcraft/internal/adapter/api/middleware"
	"handcraft/internal/usecase"
	"handcraft/pkg/response"
	"handcraft/pkg/utils"
)

type ProductHandler struct {
	productUseCase *usecase.ProductUseCase
}

func NewProductHandler(productUseCase *usecase.ProductUseCase) *ProductHandler {
	return &ProductHandler{productUseCase: productUseCase}
}

func (h *ProductHandler) List(c echo.Context) error {
	limit, offset := utils.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))
	category := c.QueryParam("category")

	products, total, err := h.productUseCase.List(c.Request().Context(), category, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, products, total, limit, offset)
}

func (h *ProductHandler) Get(c echo.Context) error {
	product, err := h.productUseCase.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, http.StatusOK, product)
}

func (h *ProductHandler) Mine(c echo.Context) error {
	products, err := h.productUseCase.ListBySeller(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, http.StatusOK, products)
}

func (h *ProductHandler) Create(c echo.Context) error {
	var input usecase.ProductInput
	if err := c.Bind(&input); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&input); err != nil {
		return response.Error(c, err)
	}

	product, err := h.productUseCase.Create(c.Request().Context(), middleware.UserID(c), input)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, product)
}

func (h *ProductHandler) Update(c echo.Context) error {
	var input usecase.ProductInput
	if err := c.Bind(&input); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&input); err != nil {
		return response.Error(c, err)
	}

	product, err := h.productUseCase.Update(c.Request().Context(), middleware.UserID(c), c.Param("id"), input)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, http.StatusOK, product)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	if err := h.productUseCase.Delete(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, http.StatusOK, map[string]string{"message": "Product deleted"})
}
