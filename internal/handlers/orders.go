package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"stamp-match-backend/internal/models"
	"stamp-match-backend/internal/services"
)

type OrdersHandler struct {
	orders services.OrderSource
}

func NewOrdersHandler(orders services.OrderSource) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// ListMatchable godoc
// @Summary     List orders eligible for matching
// @Description Returns orders that carry at least one design file and can
// @Description therefore join the matching corpus.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.MatchableOrderResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /orders/matchable [get]
func (h *OrdersHandler) ListMatchable(c *gin.Context) {
	orders, err := h.orders.ListMatchableOrders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list orders",
			Message: err.Error(),
		})
		return
	}

	resp := models.MatchableOrderResponse{Orders: make([]models.MatchableOrder, len(orders))}
	for i, order := range orders {
		resp.Orders[i] = models.MatchableOrder{
			ID:             order.ID,
			ClientName:     order.ClientName,
			DesignName:     order.DesignName,
			HasBaseDesign:  order.BaseDesignPath.Valid,
			HasVector:      order.VectorDesignPath.Valid,
			StampPhotoPath: order.StampPhotoPath.String,
		}
	}

	c.JSON(http.StatusOK, resp)
}
