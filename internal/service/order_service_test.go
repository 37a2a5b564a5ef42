package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/lumipure-api/internal/constants"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type orderFixture struct {
	db     *gorm.DB
	orders *OrderService
	cart   *CartService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db := openServiceTestDB(t)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orders := NewOrderService(testConfig(), repository.NewOrderRepository(db), productRepo, cartRepo, nil, nil)
	return &orderFixture{
		db:     db,
		orders: orders,
		cart:   NewCartService(cartRepo, productRepo),
	}
}

func testShippingAddress() models.ShippingAddress {
	return models.ShippingAddress{
		Name:    "Ada Lovelace",
		Phone:   "555-0100",
		Street:  "1 Analytical Way",
		City:    "London",
		State:   "LDN",
		ZipCode: "N1",
		Country: "UK",
	}
}

func countCartItems(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count cart items failed: %v", err)
	}
	return count
}

func TestMergeCreateOrderItems(t *testing.T) {
	merged, err := mergeCreateOrderItems([]CreateOrderItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("mergeCreateOrderItems error: %v", err)
	}
	if len(merged) != 2 || merged[0].ProductID != 1 || merged[0].Quantity != 3 {
		t.Fatalf("unexpected merged items: %+v", merged)
	}

	if _, err := mergeCreateOrderItems(nil); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("want ErrEmptyOrder got %v", err)
	}
	if _, err := mergeCreateOrderItems([]CreateOrderItem{{ProductID: 1, Quantity: 0}}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity got %v", err)
	}
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	at := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	number := generateOrderNumber("LP", at)
	if !regexp.MustCompile(`^LP2603\d{4}$`).MatchString(number) {
		t.Fatalf("unexpected order number %q", number)
	}
}

func TestAppendStatusHistoryPutsNoteOnNewEntry(t *testing.T) {
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	history := models.StatusHistory{{Status: constants.OrderStatusPending, Timestamp: first, Note: "created"}}

	next := appendStatusHistory(history, constants.OrderStatusShipped, "  tracking 123 ", first.Add(time.Hour))
	if len(next) != 2 {
		t.Fatalf("want 2 entries got %d", len(next))
	}
	if next[0].Note != "created" {
		t.Fatalf("earlier entry must be untouched, got %q", next[0].Note)
	}
	if next[1].Status != constants.OrderStatusShipped || next[1].Note != "tracking 123" {
		t.Fatalf("unexpected appended entry %+v", next[1])
	}
	if len(history) != 1 {
		t.Fatalf("input history must not be mutated")
	}
}

func TestApplyOrderPricesComputesMissingTotals(t *testing.T) {
	items := []models.OrderItem{
		{Price: models.NewMoneyFromFloat(10), Quantity: 2},
		{Price: models.NewMoneyFromFloat(5.5), Quantity: 1},
	}
	order := &models.Order{}
	shipping := decimal.NewFromFloat(4)
	discount := decimal.NewFromFloat(1.5)
	applyOrderPrices(order, items, CreateOrderInput{ShippingPrice: &shipping, DiscountAmount: &discount})
	if order.ItemsPrice.String() != "25.50" || order.TotalPrice.String() != "28.00" {
		t.Fatalf("want items 25.50 total 28.00 got %s / %s", order.ItemsPrice.String(), order.TotalPrice.String())
	}

	explicit := decimal.NewFromFloat(99)
	applyOrderPrices(order, items, CreateOrderInput{TotalPrice: &explicit})
	if order.TotalPrice.String() != "99.00" {
		t.Fatalf("explicit total should win, got %s", order.TotalPrice.String())
	}
}

func TestCreateOrderSnapshotsDecrementsAndClearsCart(t *testing.T) {
	f := newOrderFixture(t)
	user := seedUser(t, f.db, "buyer@example.com", "")
	category := seedCategory(t, f.db, "Serums")
	a := seedProduct(t, f.db, category.ID, "Serum A", 20, 5)
	b := seedProduct(t, f.db, category.ID, "Serum B", 7.25, 3)

	if _, err := f.cart.AddItem(AddCartItemInput{UserID: user.ID, ProductID: a.ID, Quantity: 2}); err != nil {
		t.Fatalf("add A failed: %v", err)
	}
	if _, err := f.cart.AddItem(AddCartItemInput{UserID: user.ID, ProductID: b.ID, Quantity: 1}); err != nil {
		t.Fatalf("add B failed: %v", err)
	}

	order, err := f.orders.CreateOrder(CreateOrderInput{
		UserID:          user.ID,
		Items:           []CreateOrderItem{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 1}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   constants.PaymentMethodCashOnDelivery,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if len(order.Items) != 2 {
		t.Fatalf("want 2 order items got %d", len(order.Items))
	}
	if order.Items[0].Name != "Serum A" || order.Items[0].Price.String() != "20.00" || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected snapshot for A %+v", order.Items[0])
	}
	if order.Items[1].Price.String() != "7.25" || order.Items[1].Image == "" {
		t.Fatalf("unexpected snapshot for B %+v", order.Items[1])
	}
	if order.ItemsPrice.String() != "47.25" || order.TotalPrice.String() != "47.25" {
		t.Fatalf("want totals 47.25 got %s / %s", order.ItemsPrice.String(), order.TotalPrice.String())
	}
	if order.OrderStatus != constants.OrderStatusPending || order.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("new order should be pending, got %s/%s", order.OrderStatus, order.PaymentStatus)
	}
	if len(order.StatusHistory) != 1 || order.StatusHistory[0].Status != constants.OrderStatusPending {
		t.Fatalf("want one pending history entry got %+v", order.StatusHistory)
	}

	if got := reloadProduct(t, f.db, a.ID).Stock; got != 3 {
		t.Fatalf("want stock A 3 got %d", got)
	}
	if got := reloadProduct(t, f.db, b.ID).Stock; got != 2 {
		t.Fatalf("want stock B 2 got %d", got)
	}
	if got := countCartItems(t, f.db, user.ID); got != 0 {
		t.Fatalf("cart should be empty after checkout, got %d lines", got)
	}

	// 之后修改商品不影响历史订单
	if err := f.db.Model(&models.Product{}).Where("id = ?", a.ID).Updates(map[string]interface{}{"name": "Serum A v2", "price": "25.00"}).Error; err != nil {
		t.Fatalf("update product failed: %v", err)
	}
	reloaded, err := f.orders.Get(order.ID, user.ID, constants.RoleCustomer)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if reloaded.Items[0].Name != "Serum A" || reloaded.Items[0].Price.String() != "20.00" {
		t.Fatalf("snapshot changed after product edit %+v", reloaded.Items[0])
	}
}

// 两个购物车都通过了加购时的库存校验，后下单的一方必须整体失败
func TestConcurrentCheckoutCannotOversell(t *testing.T) {
	f := newOrderFixture(t)
	first := seedUser(t, f.db, "first@example.com", "")
	second := seedUser(t, f.db, "second@example.com", "")
	category := seedCategory(t, f.db, "Limited")
	product := seedProduct(t, f.db, category.ID, "Limited Balm", 30, 1)

	for _, user := range []*models.User{first, second} {
		if _, err := f.cart.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1}); err != nil {
			t.Fatalf("add-time stock check should pass for both carts: %v", err)
		}
	}

	place := func(userID uint) (*models.Order, error) {
		return f.orders.CreateOrder(CreateOrderInput{
			UserID:          userID,
			Items:           []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
			ShippingAddress: testShippingAddress(),
			PaymentMethod:   constants.PaymentMethodCard,
		})
	}
	if _, err := place(first.ID); err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}
	if _, err := place(second.ID); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock for second checkout got %v", err)
	}

	if got := reloadProduct(t, f.db, product.ID).Stock; got != 0 {
		t.Fatalf("stock must not go negative, got %d", got)
	}
	var secondOrders int64
	if err := f.db.Model(&models.Order{}).Where("user_id = ?", second.ID).Count(&secondOrders).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if secondOrders != 0 {
		t.Fatalf("failed checkout must not persist an order")
	}
	if got := countCartItems(t, f.db, second.ID); got != 1 {
		t.Fatalf("failed checkout must keep the cart, got %d lines", got)
	}
}

// racingOrderRepository 编号预检总是通过，模拟预检与插入之间被并发订单抢占
type racingOrderRepository struct {
	repository.OrderRepository
}

func (racingOrderRepository) ExistsByOrderNumber(string) (bool, error) {
	return false, nil
}

// fixedOrderNumbers 依次返回给定编号，用尽后重复最后一个
func fixedOrderNumbers(numbers ...string) func(string, time.Time) string {
	next := 0
	return func(string, time.Time) string {
		number := numbers[next]
		if next < len(numbers)-1 {
			next++
		}
		return number
	}
}

type collisionFixture struct {
	*orderFixture
	buyer         *models.User
	product       *models.Product
	invalidations int
}

// newCollisionFixture 预先占用编号 LP26100001，库存 5 扣为 4，买家购物车里有 2 件
func newCollisionFixture(t *testing.T) *collisionFixture {
	t.Helper()
	f := &collisionFixture{orderFixture: newOrderFixture(t)}
	f.orders.invalidate = func(context.Context) error {
		f.invalidations++
		return nil
	}
	early := seedUser(t, f.db, "early@example.com", "")
	f.buyer = seedUser(t, f.db, "buyer@example.com", "")
	category := seedCategory(t, f.db, "Toners")
	f.product = seedProduct(t, f.db, category.ID, "Rose Toner", 18, 5)

	f.orders.newNumber = fixedOrderNumbers("LP26100001")
	if _, err := f.orders.CreateOrder(CreateOrderInput{
		UserID:          early.ID,
		Items:           []CreateOrderItem{{ProductID: f.product.ID, Quantity: 1}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   constants.PaymentMethodCard,
	}); err != nil {
		t.Fatalf("seed order failed: %v", err)
	}
	if _, err := f.cart.AddItem(AddCartItemInput{UserID: f.buyer.ID, ProductID: f.product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	return f
}

func (f *collisionFixture) checkout() (*models.Order, error) {
	return f.orders.CreateOrder(CreateOrderInput{
		UserID:          f.buyer.ID,
		Items:           []CreateOrderItem{{ProductID: f.product.ID, Quantity: 2}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   constants.PaymentMethodCard,
	})
}

func (f *collisionFixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	return count
}

func TestCreateOrderRetriesOnOrderNumberCollision(t *testing.T) {
	f := newCollisionFixture(t)
	f.orders.orderRepo = racingOrderRepository{OrderRepository: f.orders.orderRepo}
	f.orders.newNumber = fixedOrderNumbers("LP26100001", "LP26100002")

	order, err := f.checkout()
	if err != nil {
		t.Fatalf("checkout should retry past the collision: %v", err)
	}
	if order.OrderNumber != "LP26100002" {
		t.Fatalf("want retried number LP26100002 got %s", order.OrderNumber)
	}
	if got := reloadProduct(t, f.db, f.product.ID).Stock; got != 2 {
		t.Fatalf("stock must be decremented exactly once, want 2 got %d", got)
	}
	if got := f.countOrders(t); got != 2 {
		t.Fatalf("want 2 orders got %d", got)
	}
	if got := countCartItems(t, f.db, f.buyer.ID); got != 0 {
		t.Fatalf("cart should be empty, got %d lines", got)
	}
	if f.invalidations != 2 {
		t.Fatalf("each committed order should invalidate the catalog once, got %d", f.invalidations)
	}
}

func TestCreateOrderNumberExhaustedLeavesNoWrites(t *testing.T) {
	f := newCollisionFixture(t)
	realRepo := f.orders.orderRepo

	cases := []struct {
		name string
		repo repository.OrderRepository
	}{
		{name: "insert collides every attempt", repo: racingOrderRepository{OrderRepository: realRepo}},
		{name: "precheck finds every candidate taken", repo: realRepo},
	}
	for _, tc := range cases {
		f.orders.orderRepo = tc.repo
		if _, err := f.checkout(); !errors.Is(err, ErrOrderNumberExhausted) {
			t.Fatalf("%s: want ErrOrderNumberExhausted got %v", tc.name, err)
		}
		if got := reloadProduct(t, f.db, f.product.ID).Stock; got != 4 {
			t.Fatalf("%s: stock must be untouched, want 4 got %d", tc.name, got)
		}
		if got := f.countOrders(t); got != 1 {
			t.Fatalf("%s: no order may be persisted, got %d", tc.name, got)
		}
		if got := countCartItems(t, f.db, f.buyer.ID); got != 1 {
			t.Fatalf("%s: cart must be kept, got %d lines", tc.name, got)
		}
	}
	if f.invalidations != 1 {
		t.Fatalf("failed checkouts must not invalidate the catalog, got %d", f.invalidations)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t)
	user := seedUser(t, f.db, "validate@example.com", "")
	category := seedCategory(t, f.db, "Misc")
	product := seedProduct(t, f.db, category.ID, "Cotton Pads", 3, 10)

	_, err := f.orders.CreateOrder(CreateOrderInput{UserID: user.ID, ShippingAddress: testShippingAddress(), PaymentMethod: "card"})
	if !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("want ErrEmptyOrder got %v", err)
	}

	_, err = f.orders.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: "bitcoin",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Messages) != 8 {
		t.Fatalf("want 8 validation messages got %v", err)
	}

	_, err = f.orders.CreateOrder(CreateOrderInput{
		UserID:          user.ID,
		Items:           []CreateOrderItem{{ProductID: 9999, Quantity: 1}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "paypal",
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound got %v", err)
	}
}

func TestGetOrderAccessControl(t *testing.T) {
	f := newOrderFixture(t)
	owner := seedUser(t, f.db, "owner@example.com", "")
	stranger := seedUser(t, f.db, "stranger@example.com", "")
	admin := seedUser(t, f.db, "admin@example.com", constants.RoleAdmin)
	category := seedCategory(t, f.db, "Tools")
	product := seedProduct(t, f.db, category.ID, "Jade Roller", 18, 4)

	order, err := f.orders.CreateOrder(CreateOrderInput{
		UserID:          owner.ID,
		Items:           []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "card",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := f.orders.Get(order.ID, owner.ID, constants.RoleCustomer); err != nil {
		t.Fatalf("owner should see the order: %v", err)
	}
	if _, err := f.orders.Get(order.ID, admin.ID, constants.RoleAdmin); err != nil {
		t.Fatalf("admin should see the order: %v", err)
	}
	if _, err := f.orders.Get(order.ID, stranger.ID, constants.RoleCustomer); !errors.Is(err, ErrOrderAccessDenied) {
		t.Fatalf("want ErrOrderAccessDenied got %v", err)
	}
	if _, err := f.orders.Get(9999, owner.ID, constants.RoleCustomer); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("want ErrOrderNotFound got %v", err)
	}

	mine, total, err := f.orders.ListMine(stranger.ID, 1, 0)
	if err != nil || total != 0 || len(mine) != 0 {
		t.Fatalf("stranger should have no orders, got %d (%v)", total, err)
	}
}

func TestUpdateOrderStatusDelivered(t *testing.T) {
	f := newOrderFixture(t)
	user := seedUser(t, f.db, "status@example.com", "")
	category := seedCategory(t, f.db, "Fragrance")
	product := seedProduct(t, f.db, category.ID, "Eau de Parfum", 60, 2)

	order, err := f.orders.CreateOrder(CreateOrderInput{
		UserID:          user.ID,
		Items:           []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "cod",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.DeliveredAt != nil {
		t.Fatalf("deliveredAt should be empty before delivery")
	}

	updated, err := f.orders.UpdateOrderStatus(order.ID, "DELIVERED", "Signed by recipient")
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if updated.OrderStatus != constants.OrderStatusDelivered {
		t.Fatalf("want delivered got %s", updated.OrderStatus)
	}
	if updated.DeliveredAt == nil {
		t.Fatalf("deliveredAt should be stamped")
	}
	if len(updated.StatusHistory) != 2 {
		t.Fatalf("want exactly one appended entry, got %d entries", len(updated.StatusHistory))
	}
	last, _ := updated.StatusHistory.Last()
	if last.Status != constants.OrderStatusDelivered || last.Note != "Signed by recipient" {
		t.Fatalf("unexpected last entry %+v", last)
	}
	if updated.StatusHistory[0].Note != "" {
		t.Fatalf("note must not land on the earlier entry")
	}

	// 不校验流转顺序
	back, err := f.orders.UpdateOrderStatus(order.ID, constants.OrderStatusPending, "")
	if err != nil {
		t.Fatalf("status rollback should be allowed: %v", err)
	}
	if len(back.StatusHistory) != 3 {
		t.Fatalf("want 3 entries got %d", len(back.StatusHistory))
	}

	if _, err := f.orders.UpdateOrderStatus(order.ID, "lost", ""); !errors.Is(err, ErrInvalidOrderStatus) {
		t.Fatalf("want ErrInvalidOrderStatus got %v", err)
	}
	if _, err := f.orders.UpdateOrderStatus(9999, "shipped", ""); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("want ErrOrderNotFound got %v", err)
	}

	all, total, err := f.orders.ListAll(constants.OrderStatusPending, 1, 0)
	if err != nil || total != 1 || len(all) != 1 {
		t.Fatalf("admin list by status want 1 got %d (%v)", total, err)
	}
}
