// Package pos exposes the single-session point-of-sale surface over HTTP:
// menu browsing, cart edits, checkout, order tracking and feedback. It owns
// no rendering; display clients poll these endpoints or follow the status
// fanout stream.
package pos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"canteen-system/internal/canteen"
	"canteen-system/internal/cart"
	"canteen-system/internal/checkout"
	"canteen-system/internal/logger"
	"canteen-system/internal/order"
	"canteen-system/internal/payment"
	"canteen-system/internal/validation"
)

// HealthFunc reports whether the service's dependencies are reachable.
type HealthFunc func(ctx context.Context) bool

// Handler handles HTTP requests for the point-of-sale service. It holds the
// one customer session this process serves. The cart and the customer
// histories are not internally synchronized, so every user action that
// touches them runs under the session mutex; the server spawns a goroutine
// per request and overlapping requests would otherwise corrupt them.
type Handler struct {
	engine   *checkout.Engine
	cart     *cart.Cart
	customer *canteen.Customer
	vendor   *canteen.Vendor
	logger   *logger.Logger
	health   HealthFunc

	session sync.Mutex
}

// NewHandler creates a new point-of-sale handler.
func NewHandler(engine *checkout.Engine, c *cart.Cart, cust *canteen.Customer, vend *canteen.Vendor, log *logger.Logger, health HealthFunc) *Handler {
	return &Handler{
		engine:   engine,
		cart:     c,
		customer: cust,
		vendor:   vend,
		logger:   log,
		health:   health,
	}
}

type menuItemResponse struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

type cartItemRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity,omitempty"`
}

type cartResponse struct {
	Lines []order.Line `json:"lines"`
	Total float64      `json:"total"`
}

type checkoutRequest struct {
	PaymentMethod         string  `json:"payment_method"`
	CashTendered          float64 `json:"cash_tendered,omitempty"`
	TransactionCredential string  `json:"transaction_credential,omitempty"`
}

type checkoutResponse struct {
	OrderID     string          `json:"order_id"`
	Status      string          `json:"status"`
	TotalAmount float64         `json:"total_amount"`
	Receipt     payment.Receipt `json:"receipt"`
}

type orderStatusResponse struct {
	OrderID     string    `json:"order_id"`
	Status      string    `json:"status"`
	RemainingMS int64     `json:"remaining_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type feedbackRequest struct {
	OrderID  string `json:"order_id"`
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

// GetMenu handles GET /menu requests
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	items := h.vendor.Menu().Items()
	response := make([]menuItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, menuItemResponse{
			ItemID:   item.ItemID(),
			Name:     item.Name(),
			Price:    item.Price(),
			Category: item.Category(),
		})
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleCart handles GET and DELETE /cart requests
func (h *Handler) HandleCart(w http.ResponseWriter, r *http.Request) {
	h.session.Lock()
	defer h.session.Unlock()

	switch r.Method {
	case http.MethodGet:
		h.writeCart(w)
	case http.MethodDelete:
		h.cart.ClearCart()
		h.writeCart(w)
	default:
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	}
}

// AddCartItem handles POST /cart/items requests
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	h.session.Lock()
	defer h.session.Unlock()

	var req cartItemRequest
	if !h.decodeJSON(w, r, &req, requestID) {
		return
	}

	item := h.vendor.Menu().FindByID(req.ItemID)
	if item == nil {
		h.writeErrorResponse(w, http.StatusNotFound, "Item not on the menu", requestID)
		return
	}

	h.cart.AddItem(item)
	h.writeCart(w)
}

// HandleCartItem handles PUT and DELETE /cart/items/{item_id} requests
func (h *Handler) HandleCartItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	itemID := strings.TrimPrefix(r.URL.Path, "/cart/items/")
	if itemID == "" || strings.Contains(itemID, "/") {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid item id", requestID)
		return
	}

	h.session.Lock()
	defer h.session.Unlock()

	switch r.Method {
	case http.MethodPut:
		var req cartItemRequest
		if !h.decodeJSON(w, r, &req, requestID) {
			return
		}
		item := h.vendor.Menu().FindByID(itemID)
		if item == nil {
			h.writeErrorResponse(w, http.StatusNotFound, "Item not on the menu", requestID)
			return
		}
		h.cart.UpdateItemQuantity(item, req.Quantity)
		h.writeCart(w)
	case http.MethodDelete:
		// Removing an item that is not in the cart is a no-op.
		if r.URL.Query().Get("all") == "true" {
			h.cart.RemoveAll(itemID)
		} else {
			h.cart.RemoveItem(itemID)
		}
		h.writeCart(w)
	default:
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
	}
}

// Checkout handles POST /checkout requests
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	var req checkoutRequest
	if !h.decodeJSON(w, r, &req, requestID) {
		return
	}

	h.session.Lock()
	defer h.session.Unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	o, receipt, err := h.engine.Checkout(ctx, h.cart, h.customer, h.vendor, payment.Request{
		Method:       payment.Kind(req.PaymentMethod),
		CashTendered: req.CashTendered,
		Credential:   req.TransactionCredential,
	})
	if err != nil {
		h.writeCheckoutError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, checkoutResponse{
		OrderID:     o.OrderID(),
		Status:      string(o.Status()),
		TotalAmount: o.TotalAmount(),
		Receipt:     receipt,
	})
}

// writeCheckoutError maps checkout failures to HTTP status codes
func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error, requestID string) {
	var validationErr validation.ValidationError

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		h.writeErrorResponse(w, http.StatusBadRequest, "Cart is empty", requestID)
	case errors.As(err, &validationErr):
		h.writeErrorResponse(w, http.StatusBadRequest, validationErr.Error(), requestID)
	case errors.Is(err, payment.ErrInsufficientFunds):
		h.writeErrorResponse(w, http.StatusPaymentRequired, "Insufficient cash tendered", requestID)
	case errors.Is(err, payment.ErrInvalidCredential):
		h.writeErrorResponse(w, http.StatusPaymentRequired, "Invalid transaction credential", requestID)
	default:
		h.logger.Error("checkout_failed", "Checkout failed", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
	}
}

// GetOrderStatus handles GET /orders/{order_id}/status requests
func (h *Handler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	orderID := extractOrderID(r.URL.Path, "/status")
	if orderID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	o := h.engine.FindOrder(orderID)
	if o == nil {
		h.writeErrorResponse(w, http.StatusNotFound, "Order not found", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, orderStatusResponse{
		OrderID:     o.OrderID(),
		Status:      string(o.Status()),
		RemainingMS: o.Remaining().Milliseconds(),
		CreatedAt:   o.CreatedAt(),
	})
}

// CancelOrder handles POST /orders/{order_id}/cancel requests
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	orderID := extractOrderID(r.URL.Path, "/cancel")
	if orderID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	o, cancelled, err := h.engine.CancelOrder(orderID)
	if err != nil {
		h.writeErrorResponse(w, http.StatusNotFound, "Order not found", requestID)
		return
	}

	h.logger.Info("order_cancel_requested", "Cancellation handled", requestID, map[string]interface{}{
		"order_id":  orderID,
		"cancelled": cancelled,
	})

	h.writeJSON(w, http.StatusOK, orderStatusResponse{
		OrderID:     o.OrderID(),
		Status:      string(o.Status()),
		RemainingMS: o.Remaining().Milliseconds(),
		CreatedAt:   o.CreatedAt(),
	})
}

// SubmitFeedback handles POST /feedback requests
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	var req feedbackRequest
	if !h.decodeJSON(w, r, &req, requestID) {
		return
	}

	h.session.Lock()
	defer h.session.Unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	f, err := h.engine.SubmitFeedback(ctx, h.customer, h.vendor, req.OrderID, req.Rating, req.Comments)
	if err != nil {
		var validationErr validation.ValidationError
		switch {
		case errors.Is(err, checkout.ErrOrderNotFound):
			h.writeErrorResponse(w, http.StatusNotFound, "Order not found", requestID)
		case errors.As(err, &validationErr):
			h.writeErrorResponse(w, http.StatusBadRequest, validationErr.Error(), requestID)
		default:
			h.logger.Error("feedback_failed", "Failed to record feedback", requestID, err, nil)
			h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, f)
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := true
	if h.health != nil {
		healthy = h.health(ctx)
	}

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "pos-service",
		"healthy":   healthy,
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		response["status"] = "unhealthy"
	}

	h.writeJSON(w, status, response)
}

// SetupRoutes sets up the HTTP routes
func (h *Handler) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/menu", h.withLogging(h.GetMenu))
	mux.HandleFunc("/cart", h.withLogging(h.HandleCart))
	mux.HandleFunc("/cart/items", h.withLogging(h.AddCartItem))
	mux.HandleFunc("/cart/items/", h.withLogging(h.HandleCartItem))
	mux.HandleFunc("/checkout", h.withLogging(h.Checkout))
	mux.HandleFunc("/orders/", h.withLogging(h.routeOrderRequests))
	mux.HandleFunc("/feedback", h.withLogging(h.SubmitFeedback))
	mux.HandleFunc("/health", h.withLogging(h.HealthCheck))

	return mux
}

// routeOrderRequests routes order-related requests to appropriate handlers
func (h *Handler) routeOrderRequests(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/status") {
		h.GetOrderStatus(w, r)
	} else if strings.HasSuffix(r.URL.Path, "/cancel") {
		h.CancelOrder(w, r)
	} else {
		h.writeErrorResponse(w, http.StatusNotFound, "Endpoint not found", "")
	}
}

// extractOrderID extracts the order ID from an /orders/{id}{suffix} path
func extractOrderID(path, suffix string) string {
	if !strings.HasPrefix(path, "/orders/") || !strings.HasSuffix(path, suffix) {
		return ""
	}

	orderID := strings.TrimPrefix(path, "/orders/")
	orderID = strings.TrimSuffix(orderID, suffix)

	if orderID == "" || strings.Contains(orderID, "/") {
		return ""
	}

	return orderID
}

// decodeJSON parses a JSON request body, writing an error response on failure
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, requestID string) bool {
	if r.Header.Get("Content-Type") != "application/json" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Content-Type must be application/json", requestID)
		return false
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return false
	}

	return true
}

func (h *Handler) writeCart(w http.ResponseWriter) {
	lines := h.cart.Lines()
	response := cartResponse{
		Lines: make([]order.Line, 0, len(lines)),
		Total: h.cart.CalculateTotal(),
	}
	for _, line := range lines {
		response.Lines = append(response.Lines, order.Line{
			ItemID:   line.Item.ItemID(),
			Name:     line.Item.Name(),
			Quantity: line.Quantity,
			Price:    line.Item.Price(),
		})
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}

// writeErrorResponse writes an error response in JSON format
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	}

	json.NewEncoder(w).Encode(errorResponse)
}

// withLogging adds request logging middleware
func (h *Handler) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}

		next(rw, r)

		duration := time.Since(start)
		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": duration.Milliseconds(),
			})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
