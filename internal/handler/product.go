package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caravela/go-store-api/internal/dto"
	"github.com/caravela/go-store-api/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPrice) {
			c.JSON(http.StatusUnprocessableEntity, dto.Result{Failed: "Validate error", Message: "price must be positive"})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.Result{Success: "Created product", ID: product.ID.Hex()})
}

func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.productService.List(c.Request.Context())
	if err != nil {
		storeFailure(c, err)
		return
	}

	resp := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		resp = append(resp, dto.ToProductResponse(&products[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Search(c *gin.Context) {
	var req dto.SearchProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	products, err := h.productService.Search(c.Request.Context(), req)
	if err != nil {
		storeFailure(c, err)
		return
	}

	resp := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		resp = append(resp, dto.ToProductResponse(&products[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "Product not founded", ID: id.Hex()})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProductResponse(product))
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	modified, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "Product not updated", ID: id.Hex()})
			return
		}
		if errors.Is(err, service.ErrInvalidPrice) {
			c.JSON(http.StatusUnprocessableEntity, dto.Result{Failed: "Validate error", Message: "price must be positive"})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: fmt.Sprintf("%d product(s) updated", modified)})
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	deleted, err := h.productService.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "Product not deleted", ID: id.Hex()})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: fmt.Sprintf("%d product(s) deleted", deleted)})
}

func (h *ProductHandler) AttachPhoto(c *gin.Context) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var req dto.PhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	modified, err := h.productService.AttachPhoto(c.Request.Context(), id, req.URL)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "Product not founded", ID: id.Hex()})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: "Photo inserted", Quantity: dto.Count(modified)})
}

func (h *ProductHandler) DetachPhoto(c *gin.Context) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var req dto.PhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	modified, err := h.productService.DetachPhoto(c.Request.Context(), id, req.URL)
	if err != nil {
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: "Photo removed", Quantity: dto.Count(modified)})
}
