package service

import (
	"bytes"
	"errors"
	"testing"

	"github.com/lumipure-api/internal/constants"

	"github.com/tealeg/xlsx"
)

func TestExportOrdersWritesWorkbook(t *testing.T) {
	f := newOrderFixture(t)
	user := seedUser(t, f.db, "export@example.com", "")
	category := seedCategory(t, f.db, "Body Care")
	lotion := seedProduct(t, f.db, category.ID, "Body Lotion", 18, 5)

	var delivered uint
	for i := 0; i < 2; i++ {
		order, err := f.orders.CreateOrder(CreateOrderInput{
			UserID:          user.ID,
			Items:           []CreateOrderItem{{ProductID: lotion.ID, Quantity: 1}},
			ShippingAddress: testShippingAddress(),
			PaymentMethod:   constants.PaymentMethodCashOnDelivery,
		})
		if err != nil {
			t.Fatalf("create order failed: %v", err)
		}
		delivered = order.ID
	}
	if _, err := f.orders.UpdateOrderStatus(delivered, constants.OrderStatusDelivered, ""); err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	var buf bytes.Buffer
	count, err := f.orders.ExportOrders("", &buf)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("want 2 exported orders got %d", count)
	}
	file, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		t.Fatalf("open workbook failed: %v", err)
	}
	rows := file.Sheets[0].Rows
	if len(rows) != 3 {
		t.Fatalf("want header plus 2 rows got %d", len(rows))
	}
	if rows[0].Cells[0].Value != "Order Number" {
		t.Fatalf("unexpected header %q", rows[0].Cells[0].Value)
	}
	if rows[1].Cells[2].Value != "export@example.com" || rows[1].Cells[3].Value != "Body Lotion x1" {
		t.Fatalf("unexpected row %q / %q", rows[1].Cells[2].Value, rows[1].Cells[3].Value)
	}

	buf.Reset()
	count, err = f.orders.ExportOrders("Delivered", &buf)
	if err != nil || count != 1 {
		t.Fatalf("want 1 delivered order got %d err=%v", count, err)
	}
	if _, err := f.orders.ExportOrders("lost", &buf); !errors.Is(err, ErrInvalidOrderStatus) {
		t.Fatalf("want ErrInvalidOrderStatus got %v", err)
	}
}
