package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caravela/go-store-api/internal/dto"
	"github.com/caravela/go-store-api/internal/service"
)

type ClientHandler struct {
	clientService *service.ClientService
}

func NewClientHandler(clientService *service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

func (h *ClientHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), req)
	if err != nil {
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.Result{Success: "Created client", ID: client.ID.Hex()})
}

func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.clientService.List(c.Request.Context())
	if err != nil {
		storeFailure(c, err)
		return
	}

	resp := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		resp = append(resp, dto.ToClientResponse(&clients[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientHandler) GetByID(c *gin.Context) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	client, err := h.clientService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "Client not founded", ID: id.Hex()})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToClientResponse(client))
}

func (h *ClientHandler) Update(c *gin.Context) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var req dto.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	modified, err := h.clientService.Update(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "Client not updated", ID: id.Hex()})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: fmt.Sprintf("%d client(s) modified", modified)})
}

func (h *ClientHandler) Delete(c *gin.Context) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	deleted, err := h.clientService.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "Client not deleted", ID: id.Hex()})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: fmt.Sprintf("%d client(s) deleted", deleted)})
}

func (h *ClientHandler) AttachPhoto(c *gin.Context) {
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

	modified, err := h.clientService.AttachPhoto(c.Request.Context(), id, req.URL)
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Failed: "Client not founded", ID: id.Hex()})
			return
		}
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: "Photo inserted", Quantity: dto.Count(modified)})
}

func (h *ClientHandler) DetachPhoto(c *gin.Context) {
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

	modified, err := h.clientService.DetachPhoto(c.Request.Context(), id, req.URL)
	if err != nil {
		storeFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: "Photo removed", Quantity: dto.Count(modified)})
}
