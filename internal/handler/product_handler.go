package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/agrolink/agrolink_api/internal/service"
	"github.com/agrolink/agrolink_api/internal/utils"
)

// ProductHandler serves the public product catalogue.
type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GetProducts handles GET /api/products?search=&page=&limit=
func (h *ProductHandler) GetProducts(c *gin.Context) {
	page, limit := pagination(c)
	search := c.Query("search")

	products, total, err := h.productService.List(c.Request.Context(), search, page, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get products")
		return
	}

	page, limit = utils.NormalizePage(page, limit)
	utils.SuccessWithPagination(c, 200, "Products retrieved successfully", gin.H{
		"products": products,
	}, page, limit, total)
}

// GetProduct handles GET /api/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, utils.ErrProductNotFound) {
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("product_id", c.Param("id")).Msg("Failed to get product")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get product")
		return
	}
	utils.Success(c, 200, "Product retrieved successfully", product)
}

// pagination reads page and limit query params, ignoring junk values.
func pagination(c *gin.Context) (int, int) {
	page := 1
	limit := utils.DefaultPageLimit
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return page, limit
}
