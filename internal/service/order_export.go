package service

import (
	"fmt"
	"io"
	"strings"

	"github.com/lumipure-api/internal/constants"
	"github.com/lumipure-api/internal/models"

	"github.com/tealeg/xlsx"
)

const orderExportTimeLayout = "2006-01-02 15:04:05"

var orderExportHeaders = []string{
	"Order Number", "Customer", "Email", "Items", "Items Price", "Shipping",
	"Tax", "Discount", "Total", "Payment Method", "Payment Status",
	"Order Status", "Delivered At", "Created At",
}

// ExportOrders 导出订单为 xlsx，可按状态筛选
func (s *OrderService) ExportOrders(status string, w io.Writer) (int, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !constants.IsOrderStatus(status) {
		return 0, ErrInvalidOrderStatus
	}
	orders, err := s.orderRepo.ListForExport(status)
	if err != nil {
		return 0, err
	}
	file, err := buildOrderWorkbook(orders)
	if err != nil {
		return 0, err
	}
	return len(orders), file.Write(w)
}

func buildOrderWorkbook(orders []models.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}
	header := sheet.AddRow()
	for _, h := range orderExportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, order := range orders {
		row := sheet.AddRow()
		row.AddCell().SetValue(order.OrderNumber)
		var name, email string
		if order.User != nil {
			name = order.User.Name
			email = order.User.Email
		}
		row.AddCell().SetValue(name)
		row.AddCell().SetValue(email)
		row.AddCell().SetValue(describeOrderItems(order.Items))
		row.AddCell().SetFloat(order.ItemsPrice.Float())
		row.AddCell().SetFloat(order.ShippingPrice.Float())
		row.AddCell().SetFloat(order.TaxPrice.Float())
		row.AddCell().SetFloat(order.DiscountAmount.Float())
		row.AddCell().SetFloat(order.TotalPrice.Float())
		row.AddCell().SetValue(order.PaymentMethod)
		row.AddCell().SetValue(order.PaymentStatus)
		row.AddCell().SetValue(order.OrderStatus)
		deliveredAt := ""
		if order.DeliveredAt != nil {
			deliveredAt = order.DeliveredAt.Format(orderExportTimeLayout)
		}
		row.AddCell().SetValue(deliveredAt)
		row.AddCell().SetValue(order.CreatedAt.Format(orderExportTimeLayout))
	}
	return file, nil
}

func describeOrderItems(items []models.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
	}
	return strings.Join(parts, ", ")
}
