package handlers

import (
	"net/http"
	"time"

	"sales-ims/internal/middleware"
	"sales-ims/internal/models"
	"sales-ims/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type SalesHandler struct {
	sales *sales.Service
}

func NewSalesHandler(svc *sales.Service) *SalesHandler {
	return &SalesHandler{sales: svc}
}

//
// CUSTOMERS
//

type customerOut struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func newCustomerOut(m *models.Customer) customerOut {
	return customerOut{ID: m.ID, Name: m.Name, Email: m.Email, Phone: m.Phone, CreatedAt: m.CreatedAt}
}

type createCustomerRequest struct {
	Name  string  `json:"name" binding:"required"`
	Email string  `json:"email" binding:"required,email"`
	Phone *string `json:"phone"`
}

func (h *SalesHandler) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	customer, err := h.sales.CreateCustomer(c.Request.Context(), sales.CreateCustomerRequest{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCustomerOut(customer))
}

func (h *SalesHandler) ListCustomers(c *gin.Context) {
	customers, err := h.sales.ListCustomers(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]customerOut, 0, len(customers))
	for i := range customers {
		out = append(out, newCustomerOut(&customers[i]))
	}
	c.JSON(http.StatusOK, out)
}

//
// PRODUCTS
//

type productOut struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func newProductOut(m *models.Product) productOut {
	return productOut{ID: m.ID, Name: m.Name, SKU: m.SKU, Price: m.Price.InexactFloat64(), CreatedAt: m.CreatedAt}
}

type createProductRequest struct {
	Name  string           `json:"name" binding:"required"`
	SKU   string           `json:"sku" binding:"required"`
	Price *decimal.Decimal `json:"price" binding:"required"`
}

func (h *SalesHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	product, err := h.sales.CreateProduct(c.Request.Context(), sales.CreateProductRequest{
		Name:  req.Name,
		SKU:   req.SKU,
		Price: *req.Price,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newProductOut(product))
}

func (h *SalesHandler) ListProducts(c *gin.Context) {
	products, err := h.sales.ListProducts(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]productOut, 0, len(products))
	for i := range products {
		out = append(out, newProductOut(&products[i]))
	}
	c.JSON(http.StatusOK, out)
}

//
// ORDERS
//

type orderOut struct {
	ID          uint      `json:"id"`
	Quantity    int       `json:"quantity"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	CustomerID  uint      `json:"customer_id"`
	ProductID   uint      `json:"product_id"`
	SalesRepID  *uint     `json:"sales_rep_id"`
}

func newOrderOut(m *models.SalesOrder) orderOut {
	return orderOut{
		ID:          m.ID,
		Quantity:    m.Quantity,
		TotalAmount: m.TotalAmount.InexactFloat64(),
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		CustomerID:  m.CustomerID,
		ProductID:   m.ProductID,
		SalesRepID:  m.SalesRepID,
	}
}

type createOrderRequest struct {
	CustomerID uint   `json:"customer_id" binding:"required"`
	ProductID  uint   `json:"product_id" binding:"required"`
	Quantity   *int   `json:"quantity" binding:"required"`
	Status     string `json:"status"`
}

type updateOrderRequest struct {
	Quantity *int    `json:"quantity"`
	Status   *string `json:"status"`
}

func (h *SalesHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	var repID uint
	if user, ok := middleware.CurrentUser(c); ok {
		repID = user.ID
	}

	order, err := h.sales.CreateOrder(c.Request.Context(), repID, sales.CreateOrderRequest{
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Quantity:   *req.Quantity,
		Status:     req.Status,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newOrderOut(order))
}

func (h *SalesHandler) ListOrders(c *gin.Context) {
	orders, err := h.sales.ListOrders(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]orderOut, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderOut(&orders[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *SalesHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.sales.GetOrder(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newOrderOut(order))
}

func (h *SalesHandler) UpdateOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	order, err := h.sales.UpdateOrder(c.Request.Context(), id, sales.UpdateOrderRequest{
		Quantity: req.Quantity,
		Status:   req.Status,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newOrderOut(order))
}

func (h *SalesHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.sales.DeleteOrder(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
