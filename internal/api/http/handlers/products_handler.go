package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/catalog-service/internal/api/dto"
	"github.com/spec-kit/catalog-service/internal/auth"
	"github.com/spec-kit/catalog-service/internal/service"
	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

// ProductsHandler manages catalog endpoints.
type ProductsHandler struct {
	service *service.ProductService
}

// NewProductsHandler constructs handler.
func NewProductsHandler(productService *service.ProductService) *ProductsHandler {
	return &ProductsHandler{service: productService}
}

// List GET /api/products.
func (h *ProductsHandler) List(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), service.ProductQuery{
		Category: c.Query("category"),
		SortBy:   c.Query("sort_by"),
		Order:    c.Query("order"),
		Page:     c.QueryInt("page", 1),
		PerPage:  c.QueryInt("per_page", 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponses(page.Products), "meta": page.Meta})
}

// Search GET /api/search/products.
func (h *ProductsHandler) Search(c *fiber.Ctx) error {
	page, err := h.service.Search(c.UserContext(), c.Query("query"), c.QueryInt("page", 1), c.QueryInt("per_page", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponses(page.Products), "meta": page.Meta})
}

// Show GET /api/products/:id.
func (h *ProductsHandler) Show(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	product, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"product": dto.NewProductResponse(product)})
}

// Create POST /api/products.
func (h *ProductsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateProductRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	product, err := h.service.Create(c.UserContext(), actorID(c), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Categories:  req.Categories,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Product added with success",
		"product": dto.NewProductResponse(product),
	})
}

// Update PUT /api/products/:id.
func (h *ProductsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProductRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	product, err := h.service.Update(c.UserContext(), actorID(c), id, service.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Categories:  req.Categories,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Product updated with success",
		"product": dto.NewProductResponse(product),
	})
}

// Delete DELETE /api/products/:id.
func (h *ProductsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actorID(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product deleted with success"})
}

// Categories GET /api/categories.
func (h *ProductsHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.service.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": dto.NewCategoryResponses(categories)})
}

// CategoryProducts GET /api/categories/:id/products.
func (h *ProductsHandler) CategoryProducts(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	page, err := h.service.CategoryProducts(c.UserContext(), id, c.QueryInt("page", 1), c.QueryInt("per_page", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": dto.NewProductResponses(page.Products), "meta": page.Meta})
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"field": "id"})
	}
	return int64(id), nil
}

func actorID(c *fiber.Ctx) string {
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		return principal.User.ID
	}
	return ""
}
