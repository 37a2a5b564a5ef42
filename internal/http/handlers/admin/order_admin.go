package admin

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lumipure-api/internal/http/handlers/shared"
	"github.com/lumipure-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UpdateOrderStatusRequest 订单状态更新请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// ListAllOrders 全部订单（可按状态筛选）
func (h *Handler) ListAllOrders(c *gin.Context) {
	page, limit := shared.ParsePagination(c, h.Config.Order.AdminListLimit)
	status := strings.TrimSpace(c.Query("status"))
	orders, total, err := h.OrderService.ListAll(status, page, limit)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Orders retrieved successfully", gin.H{
		"orders":     orders,
		"pagination": response.BuildPagination(page, limit, total),
	})
}

// ExportOrders 导出订单为 xlsx
func (h *Handler) ExportOrders(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	var buf bytes.Buffer
	count, err := h.OrderService.ExportOrders(status, &buf)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102150405"))
	shared.RequestLog(c).Infow("orders_exported", "count", count, "status", status)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// UpdateOrderStatus 更新订单状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := shared.ParseID(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	order, err := h.OrderService.UpdateOrderStatus(orderID, req.Status, req.Note)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, "Order status updated successfully", gin.H{"order": order})
}
