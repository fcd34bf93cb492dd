package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	appCart "github.com/trippeak/tourshop/internal/application/cart"
	appCatalog "github.com/trippeak/tourshop/internal/application/catalog"
	appOrder "github.com/trippeak/tourshop/internal/application/order"
	appSettlement "github.com/trippeak/tourshop/internal/application/settlement"
	appShop "github.com/trippeak/tourshop/internal/application/shop"
	domainCart "github.com/trippeak/tourshop/internal/domain/cart"
	domainOrder "github.com/trippeak/tourshop/internal/domain/order"
	domainProduct "github.com/trippeak/tourshop/internal/domain/product"
	domainShop "github.com/trippeak/tourshop/internal/domain/shop"
	domainWallet "github.com/trippeak/tourshop/internal/domain/wallet"
)

type Handler struct {
	orderService      *appOrder.Service
	catalogService    *appCatalog.Service
	shopService       *appShop.Service
	cartService       *appCart.Service
	settlementService *appSettlement.Service
}

func NewHandler(
	orderSvc *appOrder.Service,
	catalogSvc *appCatalog.Service,
	shopSvc *appShop.Service,
	cartSvc *appCart.Service,
	settlementSvc *appSettlement.Service,
) *Handler {
	return &Handler{
		orderService:      orderSvc,
		catalogService:    catalogSvc,
		shopService:       shopSvc,
		cartService:       cartSvc,
		settlementService: settlementSvc,
	}
}

// Router assembles the API routes. Middlewares are supplied by the caller
// so tests can mount the bare router.
func (h *Handler) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	for _, mw := range middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})

	r.Post("/webhooks/payment/{orderCode}/paid", h.handlePaidCallback)
	r.Post("/webhooks/payment/{orderCode}/cancelled", h.handleCancelledCallback)

	r.Post("/orders", h.handleCreateOrder)
	r.Get("/orders/{orderID}", h.handleGetOrder)
	r.Post("/products", h.handleCreateProduct)
	r.Get("/products/{productID}", h.handleGetProduct)
	r.Post("/shops", h.handleCreateShop)
	r.Get("/shops/{shopID}/wallet", h.handleGetShopWallet)
	r.Post("/carts/{customerID}/items", h.handleAddCartItem)
	r.Get("/carts/{customerID}", h.handleGetCart)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

type webhookResponse struct {
	Message           string             `json:"message"`
	OrderID           string             `json:"order_id"`
	Status            domainOrder.Status `json:"status"`
	StatusValue       int                `json:"status_value"`
	StockUpdated      bool               `json:"stock_updated"`
	CartCleared       bool               `json:"cart_cleared"`
	WalletUpdated     bool               `json:"wallet_updated"`
	CommissionApplied bool               `json:"commission_applied"`
}

func (h *Handler) handlePaidCallback(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "orderCode")
	if code == "" {
		writeError(w, http.StatusBadRequest, appSettlement.ErrEmptyToken)
		return
	}

	result, err := h.settlementService.Paid(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	msg := "order settled"
	if result.AlreadyPaid {
		msg = "order already paid"
	}
	writeJSON(w, http.StatusOK, webhookResponse{
		Message:           msg,
		OrderID:           result.OrderID,
		Status:            result.Status,
		StatusValue:       result.Status.Value(),
		StockUpdated:      result.StockUpdated,
		CartCleared:       result.CartCleared,
		WalletUpdated:     result.WalletUpdated,
		CommissionApplied: result.CommissionApplied,
	})
}

func (h *Handler) handleCancelledCallback(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "orderCode")
	if code == "" {
		writeError(w, http.StatusBadRequest, appSettlement.ErrEmptyToken)
		return
	}

	result, err := h.settlementService.Cancel(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		Message:     "order cancelled",
		OrderID:     result.OrderID,
		Status:      result.Status,
		StatusValue: result.Status.Value(),
	})
}

type orderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	Code       string             `json:"code"`
	Lines      []orderLineRequest `json:"lines"`
}

type createOrderResponse struct {
	OrderID string             `json:"order_id"`
	Code    string             `json:"code"`
	Status  domainOrder.Status `json:"status"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	lines := make([]appOrder.LineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, appOrder.LineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	result, err := h.orderService.CreateOrder(r.Context(), appOrder.CreateOrderInput{
		CustomerID: req.CustomerID,
		Code:       req.Code,
		Lines:      lines,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID: result.OrderID,
		Code:    result.Code,
		Status:  result.Status,
	})
}

type orderLineResponse struct {
	ProductID string          `json:"product_id"`
	ShopID    string          `json:"shop_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type orderResponse struct {
	OrderID     string              `json:"order_id"`
	Code        string              `json:"code"`
	CustomerID  string              `json:"customer_id"`
	Status      domainOrder.Status  `json:"status"`
	StatusValue int                 `json:"status_value"`
	Lines       []orderLineResponse `json:"lines"`
	Total       decimal.Decimal     `json:"total"`
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ord, err := h.orderService.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	lines := make([]orderLineResponse, 0, len(ord.Lines))
	for _, l := range ord.Lines {
		lines = append(lines, orderLineResponse{
			ProductID: l.ProductID,
			ShopID:    l.ShopID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	writeJSON(w, http.StatusOK, orderResponse{
		OrderID:     ord.ID,
		Code:        ord.Code,
		CustomerID:  ord.CustomerID,
		Status:      ord.Status,
		StatusValue: ord.Status.Value(),
		Lines:       lines,
		Total:       ord.Total(),
	})
}

type createProductRequest struct {
	ShopID string          `json:"shop_id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
}

type productResponse struct {
	ProductID string          `json:"product_id"`
	ShopID    string          `json:"shop_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	SoldCount int             `json:"sold_count"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.catalogService.CreateProduct(r.Context(), appCatalog.CreateProductInput{
		ShopID: req.ShopID,
		Name:   req.Name,
		Price:  req.Price,
		Stock:  req.Stock,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalogService.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func toProductResponse(p *domainProduct.Product) productResponse {
	return productResponse{
		ProductID: p.ID,
		ShopID:    p.ShopID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		SoldCount: p.SoldCount,
	}
}

type createShopRequest struct {
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

type shopResponse struct {
	ShopID  string `json:"shop_id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

func (h *Handler) handleCreateShop(w http.ResponseWriter, r *http.Request) {
	var req createShopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s, err := h.shopService.CreateShop(r.Context(), appShop.CreateShopInput{
		OwnerID: req.OwnerID,
		Name:    req.Name,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, shopResponse{
		ShopID:  s.ID,
		OwnerID: s.OwnerID,
		Name:    s.Name,
	})
}

type walletResponse struct {
	WalletID string          `json:"wallet_id"`
	ShopID   string          `json:"shop_id"`
	Balance  decimal.Decimal `json:"balance"`
}

func (h *Handler) handleGetShopWallet(w http.ResponseWriter, r *http.Request) {
	wlt, err := h.shopService.GetWallet(r.Context(), chi.URLParam(r, "shopID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{
		WalletID: wlt.ID,
		ShopID:   wlt.ShopID,
		Balance:  wlt.Balance,
	})
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartResponse struct {
	CustomerID string             `json:"customer_id"`
	Items      []cartItemResponse `json:"items"`
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c, err := h.cartService.AddItem(r.Context(), chi.URLParam(r, "customerID"), req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.cartService.Get(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func toCartResponse(c *domainCart.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, cartItemResponse{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return cartResponse{CustomerID: c.CustomerID, Items: items}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appSettlement.ErrEmptyToken),
		errors.Is(err, domainOrder.ErrNoLines),
		errors.Is(err, domainOrder.ErrInvalidLine),
		errors.Is(err, domainProduct.ErrInvalidPrice),
		errors.Is(err, domainProduct.ErrInvalidStock),
		errors.Is(err, domainProduct.ErrInvalidQuantity),
		errors.Is(err, domainShop.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domainOrder.ErrNotFound),
		errors.Is(err, domainProduct.ErrNotFound),
		errors.Is(err, domainShop.ErrNotFound),
		errors.Is(err, domainWallet.ErrNotFound),
		errors.Is(err, domainCart.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domainOrder.ErrStatusConflict),
		errors.Is(err, domainOrder.ErrConflict),
		errors.Is(err, domainProduct.ErrConflict),
		errors.Is(err, domainShop.ErrConflict),
		errors.Is(err, domainWallet.ErrConflict):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
