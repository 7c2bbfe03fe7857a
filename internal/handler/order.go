package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/caravela/go-store-api/internal/dto"
	"github.com/caravela/go-store-api/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	clientID, err := dto.ParseID(req.ClientID)
	if err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "client not founded", ID: req.ClientID})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.Result{Success: "order created", ID: order.ID.Hex()})
}

func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orderService.List(c.Request.Context())
	if err != nil {
		storeFailure(c, err)
		return
	}

	resp := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, dto.ToOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) GetByID(c *gin.Context) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "order not founded", ID: id.Hex()})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func (h *OrderHandler) AddItem(c *gin.Context) {
	orderID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	productID, err := dto.ParseID(req.ProductID)
	if err != nil {
		badRequest(c, err)
		return
	}

	modified, err := h.orderService.AddItem(c.Request.Context(), orderID, productID, req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "order_id not founded", ID: orderID.Hex()})
			return
		}
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "product not founded", ID: req.ProductID})
			return
		}
		var stock *service.InsufficientStockError
		if errors.As(err, &stock) {
			c.JSON(http.StatusConflict, dto.Result{
				Failed:            "product is not enough in stock",
				ID:                stock.ProductID,
				QuantityInStock:   &stock.InStock,
				QuantityRequested: &stock.Requested,
			})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: "item inserted", Quantity: dto.Count(modified)})
}

func (h *OrderHandler) RemoveItem(c *gin.Context) {
	orderID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}
	productID, err := dto.ParseID(c.Param("productId"))
	if err != nil {
		badRequest(c, err)
		return
	}

	modified, err := h.orderService.RemoveItem(c.Request.Context(), orderID, productID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "order_id not founded", ID: orderID.Hex()})
			return
		}
		if errors.Is(err, service.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "product_id not founded", ID: productID.Hex()})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: "item deleted", Quantity: dto.Count(modified)})
}

func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	orderID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	modified, err := h.orderService.ChangeStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "order_id not founded", ID: orderID.Hex()})
			return
		}
		if errors.Is(err, service.ErrInvalidStatus) || errors.Is(err, service.ErrTransitionNotAllowed) {
			c.JSON(http.StatusUnprocessableEntity, dto.Result{Failed: "Validate error", Message: err.Error()})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: "status modified", Quantity: dto.Count(modified)})
}

func (h *OrderHandler) Delete(c *gin.Context) {
	orderID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	deleted, err := h.orderService.Delete(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "order not deleted", ID: orderID.Hex()})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: "order deleted", Quantity: dto.Count(deleted)})
}

func (h *OrderHandler) Audit(c *gin.Context) {
	orderID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit < 1 {
		limit = 20
	}

	logs, err := h.orderService.Audit(c.Request.Context(), orderID, limit)
	if err != nil {
		storeFailure(c, err)
		return
	}

	resp := make([]dto.AuditLogResponse, 0, len(logs))
	for _, entry := range logs {
		resp = append(resp, dto.AuditLogResponse{
			Service:   entry.Service,
			Action:    entry.Action,
			EntityID:  entry.EntityID,
			CreatedAt: entry.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}
