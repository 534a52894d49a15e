package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sales-ims/internal/database"
	"sales-ims/internal/logger"
	"sales-ims/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrDuplicateCustomer = errors.New("customer already exists")
	ErrDuplicateSKU      = errors.New("product already exists")
	ErrReferenceNotFound = errors.New("product or customer not found")
	ErrOrderNotFound     = errors.New("order not found")

	ErrInvalidName     = errors.New("name is required")
	ErrInvalidEmail    = errors.New("email is required")
	ErrInvalidSKU      = errors.New("sku is required")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrTotalTooLarge   = errors.New("order total is too large")
)

type CreateCustomerRequest struct {
	Name  string
	Email string
	Phone *string
}

type CreateProductRequest struct {
	Name  string
	SKU   string
	Price decimal.Decimal
}

type CreateOrderRequest struct {
	CustomerID uint
	ProductID  uint
	Quantity   int
	Status     string
}

// UpdateOrderRequest leaves fields that are nil untouched.
type UpdateOrderRequest struct {
	Quantity *int
	Status   *string
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:  db,
		log: log.Named("sales"),
	}
}

//
// CUSTOMERS
//

func (s *Service) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	var phone *string
	if req.Phone != nil {
		if p := strings.TrimSpace(*req.Phone); p != "" {
			phone = &p
		}
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Customer{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check customer email: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateCustomer
	}

	customer := models.Customer{
		Name:  name,
		Email: email,
		Phone: phone,
	}
	if err := db.Create(&customer).Error; err != nil {
		if database.IsDuplicateKeyErr(err) {
			return nil, ErrDuplicateCustomer
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}

	logger.WithContext(ctx, s.log).Info("customer created", zap.Uint("customer_id", customer.ID))
	return &customer, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	customers := []models.Customer{}
	if err := s.db.WithContext(ctx).Order("id asc").Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

//
// PRODUCTS
//

func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, ErrInvalidSKU
	}
	if req.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Product{}).Where("sku = ?", sku).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check sku: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateSKU
	}

	product := models.Product{
		Name:  name,
		SKU:   sku,
		Price: req.Price.Round(2),
	}
	if err := db.Create(&product).Error; err != nil {
		if database.IsDuplicateKeyErr(err) {
			return nil, ErrDuplicateSKU
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	logger.WithContext(ctx, s.log).Info("product created",
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU),
	)
	return &product, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.db.WithContext(ctx).Order("id asc").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

//
// ORDERS
//

// CreateOrder prices the order from the product's current price. salesRepID
// is the authenticated user placing the order.
func (s *Service) CreateOrder(ctx context.Context, salesRepID uint, req CreateOrderRequest) (*models.SalesOrder, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = models.OrderStatusPending
	}

	var order models.SalesOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, req.ProductID).Error; err != nil {
			return notFoundAs(err, ErrReferenceNotFound)
		}
		var customer models.Customer
		if err := tx.First(&customer, req.CustomerID).Error; err != nil {
			return notFoundAs(err, ErrReferenceNotFound)
		}

		total := OrderTotal(product.Price, req.Quantity)
		if err := checkOrderTotal(total); err != nil {
			return err
		}

		order = models.SalesOrder{
			Quantity:    req.Quantity,
			TotalAmount: total,
			Status:      status,
			CustomerID:  customer.ID,
			ProductID:   product.ID,
		}
		if salesRepID != 0 {
			rep := salesRepID
			order.SalesRepID = &rep
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, wrapOrderErr("create order", err)
	}

	logger.WithContext(ctx, s.log).Info("order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("customer_id", order.CustomerID),
		zap.Uint("product_id", order.ProductID),
		zap.Int("quantity", order.Quantity),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
	)
	return &order, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]models.SalesOrder, error) {
	orders := []models.SalesOrder{}
	if err := s.db.WithContext(ctx).Order("id asc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, id uint) (*models.SalesOrder, error) {
	var order models.SalesOrder
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, wrapOrderErr("get order", notFoundAs(err, ErrOrderNotFound))
	}
	return &order, nil
}

// UpdateOrder applies a partial update. A new quantity re-prices the order at
// the product's current price; a status-only change leaves the total alone.
func (s *Service) UpdateOrder(ctx context.Context, id uint, req UpdateOrderRequest) (*models.SalesOrder, error) {
	if req.Quantity != nil && *req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var order models.SalesOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return notFoundAs(err, ErrOrderNotFound)
		}

		if req.Quantity != nil {
			var product models.Product
			err := tx.First(&product, order.ProductID).Error
			switch {
			case err == nil:
				total := OrderTotal(product.Price, *req.Quantity)
				if err := checkOrderTotal(total); err != nil {
					return err
				}
				order.Quantity = *req.Quantity
				order.TotalAmount = total
			case errors.Is(err, gorm.ErrRecordNotFound):
				// without a price the quantity cannot change
				logger.WithContext(ctx, s.log).Warn("order product missing, quantity unchanged",
					zap.Uint("order_id", order.ID),
					zap.Uint("product_id", order.ProductID),
				)
			default:
				return err
			}
		}
		if req.Status != nil {
			order.Status = *req.Status
		}

		return tx.Model(&order).Select("quantity", "total_amount", "status").Updates(&order).Error
	})
	if err != nil {
		return nil, wrapOrderErr("update order", err)
	}

	return &order, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.SalesOrder{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}

	logger.WithContext(ctx, s.log).Info("order deleted", zap.Uint("order_id", id))
	return nil
}

func notFoundAs(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

func wrapOrderErr(op string, err error) error {
	if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrReferenceNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
