package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/bikeshop/internal/core/domain"
)

type HTTPHandler struct {
	catalog    Catalog
	storefront Storefront
	ledger     Ledger
	customers  Customers
	logger     *zap.Logger
}

func NewHTTPHandler(catalog Catalog, storefront Storefront, ledger Ledger, customers Customers, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		catalog:    catalog,
		storefront: storefront,
		ledger:     ledger,
		customers:  customers,
		logger:     logger,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("GET /api/components/{kind}", h.ListComponents)
	mux.HandleFunc("POST /api/components/{kind}", h.CreateComponent)
	mux.HandleFunc("PUT /api/components/{kind}", h.UpdateComponent)
	mux.HandleFunc("DELETE /api/components/{kind}/{brand}/{serial}", h.DeleteComponent)

	mux.HandleFunc("GET /api/framesets/filter", h.FilterFramesets)
	mux.HandleFunc("GET /api/framesets/sizes", h.FramesetSizes)
	mux.HandleFunc("GET /api/handlebars/filter", h.FilterHandlebars)
	mux.HandleFunc("GET /api/wheelpairs/filter", h.FilterWheelPairs)
	mux.HandleFunc("GET /api/wheelpairs/diameters", h.WheelDiameters)

	mux.HandleFunc("GET /api/customers", h.ListCustomers)
	mux.HandleFunc("POST /api/customers", h.RegisterCustomer)
	mux.HandleFunc("POST /api/customers/authenticate", h.AuthenticateCustomer)
	mux.HandleFunc("GET /api/customers/{id}", h.GetCustomer)
	mux.HandleFunc("PUT /api/customers/{id}", h.UpdateCustomer)

	mux.HandleFunc("POST /api/orders", h.Checkout)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{orderNumber}", h.GetOrder)
	mux.HandleFunc("DELETE /api/orders/{orderNumber}", h.CancelOrder)
	mux.HandleFunc("PUT /api/orders/{orderNumber}/status", h.SetStatus)
	mux.HandleFunc("PUT /api/orders/{orderNumber}/staff", h.AssignStaff)
	mux.HandleFunc("DELETE /api/orders/{orderNumber}/staff", h.UnassignStaff)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListComponents(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	list, err := h.catalog.List(r.Context(), kind, r.URL.Query().Get("all") == "true")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toComponentsJSON(list))
}

func (h *HTTPHandler) CreateComponent(w http.ResponseWriter, r *http.Request) {
	component, ok := h.decodeComponent(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Create(r.Context(), component); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toComponentJSON(component))
}

func (h *HTTPHandler) UpdateComponent(w http.ResponseWriter, r *http.Request) {
	component, ok := h.decodeComponent(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Update(r.Context(), component); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toComponentJSON(component))
}

func (h *HTTPHandler) DeleteComponent(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	key := domain.ComponentKey{SerialNumber: r.PathValue("serial"), BrandName: r.PathValue("brand")}
	if err := h.catalog.Delete(r.Context(), kind, key); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) FilterFramesets(w http.ResponseWriter, r *http.Request) {
	var filter domain.FramesetFilter
	query := r.URL.Query()

	if raw := query.Get("size"); raw != "" {
		size, err := decimal.NewFromString(raw)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: size must be a number", domain.ErrInvalidInput))
			return
		}
		filter.Size = &size
	}
	if raw := query.Get("shocks"); raw != "" {
		shocks, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: shocks must be true or false", domain.ErrInvalidInput))
			return
		}
		filter.HasShocks = &shocks
	}

	found, err := h.catalog.FilterFramesets(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toComponentsJSON(found))
}

func (h *HTTPHandler) FilterHandlebars(w http.ResponseWriter, r *http.Request) {
	var filter domain.HandlebarFilter
	if raw := r.URL.Query().Get("type"); raw != "" {
		typ, err := domain.ParseHandlebarType(raw)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		filter.Type = &typ
	}

	found, err := h.catalog.FilterHandlebars(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toComponentsJSON(found))
}

func (h *HTTPHandler) FilterWheelPairs(w http.ResponseWriter, r *http.Request) {
	var filter domain.WheelPairFilter
	query := r.URL.Query()

	if raw := query.Get("diameter"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: diameter must be a number", domain.ErrInvalidInput))
			return
		}
		filter.Diameter = &d
	}
	if raw := query.Get("tyre"); raw != "" {
		tyre, err := domain.ParseTyreType(raw)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		filter.TyreType = &tyre
	}
	if raw := query.Get("brake"); raw != "" {
		brake, err := domain.ParseBrakeType(raw)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		filter.BrakeType = &brake
	}

	found, err := h.catalog.FilterWheelPairs(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toComponentsJSON(found))
}

func (h *HTTPHandler) FramesetSizes(w http.ResponseWriter, r *http.Request) {
	sizes, err := h.catalog.FramesetSizes(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(sizes))
}

func (h *HTTPHandler) WheelDiameters(w http.ResponseWriter, r *http.Request) {
	diameters, err := h.catalog.WheelDiameters(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(diameters))
}

func (h *HTTPHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerJSON
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.customers.Register(r.Context(), req.customer())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerJSON(c))
}

// AuthenticateCustomer resolves a customer id from name, postcode and house number.
func (h *HTTPHandler) AuthenticateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerJSON
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.customers.Authenticate(r.Context(), req.customer())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerJSON(*c))
}

func (h *HTTPHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerJSON
	if !h.decode(w, r, &req) {
		return
	}

	c := req.customer()
	c.ID = r.PathValue("id")
	if err := h.customers.Update(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerJSON(c))
}

func (h *HTTPHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]CustomerJSON, 0, len(customers))
	for _, c := range customers {
		out = append(out, toCustomerJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerJSON(*c))
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutJSON
	if !h.decode(w, r, &req) {
		return
	}
	if req.CustomerID == "" {
		h.writeError(w, r, fmt.Errorf("%w: customer_id is required", domain.ErrInvalidInput))
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	order, err := h.storefront.Checkout(r.Context(), req.request())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderJSON(*order))
}

// ListOrders serves the customer, staff and pending-queue views; exactly one
// of customer_id, staff_id or pending=true selects the view.
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var orders []domain.Order
	var err error
	switch {
	case query.Get("customer_id") != "":
		orders, err = h.ledger.FindByCustomer(r.Context(), query.Get("customer_id"))
	case query.Get("staff_id") != "":
		orders, err = h.ledger.FindByStaff(r.Context(), query.Get("staff_id"))
	case query.Get("pending") == "true":
		orders, err = h.ledger.FindPendingUnassigned(r.Context())
	default:
		err = fmt.Errorf("%w: one of customer_id, staff_id or pending=true is required", domain.ErrInvalidInput)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrdersJSON(orders))
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.ledger.FindByID(r.Context(), r.PathValue("orderNumber"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderJSON(*order))
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.CancelOrder(r.Context(), r.PathValue("orderNumber")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusJSON
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.ledger.SetStatus(r.Context(), r.PathValue("orderNumber"), domain.OrderStatus(req.Status)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) AssignStaff(w http.ResponseWriter, r *http.Request) {
	var req StaffJSON
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.ledger.AssignStaff(r.Context(), r.PathValue("orderNumber"), req.StaffID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) UnassignStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.UnassignStaff(r.Context(), r.PathValue("orderNumber")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) kind(w http.ResponseWriter, r *http.Request) (domain.ComponentKind, bool) {
	kind, ok := kindsByPath[r.PathValue("kind")]
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorJSON{Error: "unknown component kind"})
	}
	return kind, ok
}

func (h *HTTPHandler) decodeComponent(w http.ResponseWriter, r *http.Request) (domain.Component, bool) {
	kind, ok := h.kind(w, r)
	if !ok {
		return nil, false
	}
	var req ComponentJSON
	if !h.decode(w, r, &req) {
		return nil, false
	}
	component, err := req.component(kind)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return component, true
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorJSON{Error: "invalid request body"})
		return false
	}
	return true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, ErrorJSON{Error: publicMessage(err)})
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
