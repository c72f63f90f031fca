package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/services"
)

type ProductController struct {
	catalogService services.CatalogService
}

func NewProductController(catalogService services.CatalogService) *ProductController {
	return &ProductController{catalogService: catalogService}
}

// GetProducts lists the catalog with filters, sorting and pagination.
func (pc *ProductController) GetProducts(c *gin.Context) {
	page, limit := parsePaginationParams(c, 12)

	filter := models.ProductFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Sort:     c.DefaultQuery("sort", "newest"),
	}
	if v, err := strconv.ParseBool(c.Query("featured")); err == nil {
		filter.Featured = &v
	}
	if v, err := strconv.ParseBool(c.Query("bestSeller")); err == nil {
		filter.BestSeller = &v
	}
	if v, err := strconv.ParseInt(c.Query("minPrice"), 10, 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseInt(c.Query("maxPrice"), 10, 64); err == nil {
		filter.MaxPrice = &v
	}

	result, err := pc.catalogService.ListProducts(c.Request.Context(), filter, page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"products": result.Products,
		"meta":     paginationMeta(page, limit, result.Total),
	})
}

func (pc *ProductController) GetProductByID(c *gin.Context) {
	product, err := pc.catalogService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req models.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := pc.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "product": product})
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var req models.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := pc.catalogService.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if err := pc.catalogService.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product removed"})
}
