package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/krobus00/feed-standards/internal/service/gateway"
	"github.com/krobus00/feed-standards/internal/service/ordermanager"
	"github.com/krobus00/feed-standards/internal/service/standards"
	"github.com/shopspring/decimal"
)

type WarmRequest struct {
	ApiKey    string `json:"api_key"`
	Exchange  string `json:"exchange"`
	Reset     bool   `json:"reset"`
	Broadcast bool   `json:"broadcast"`
}

type WarmAsyncResponse struct {
	Exchange entity.ExchangeName `json:"exchange"`
	Status   string              `json:"status"`
}

type OrderPayloadRequest struct {
	ApiKey        string   `json:"api_key"`
	Exchange      string   `json:"exchange"`
	Symbol        string   `json:"symbol"`
	Side          string   `json:"side"`
	Price         string   `json:"price"`
	Quantity      string   `json:"quantity"`
	Options       []string `json:"options"`
	ClientOrderID string   `json:"client_order_id"`
}

type OrderPayloadResponse struct {
	Exchange entity.ExchangeName `json:"exchange"`
	Payload  entity.OrderPayload `json:"payload"`
}

type SymbolResponse struct {
	Exchange       entity.ExchangeName `json:"exchange,omitempty"`
	Symbol         string              `json:"symbol"`
	ExchangeSymbol string              `json:"exchange_symbol"`
}

type NativeResponse struct {
	Exchange entity.ExchangeName   `json:"exchange"`
	Key      string                `json:"key"`
	State    string                `json:"state"`
	Native   standards.NativeValue `json:"native"`
}

type TimestampResponse struct {
	Exchange  entity.ExchangeName `json:"exchange"`
	Class     string              `json:"class"`
	Timestamp float64             `json:"timestamp"`
}

type InfoResponse struct {
	Exchange    entity.ExchangeName   `json:"exchange"`
	Pairs       entity.PairMapping    `json:"pairs"`
	Instruments entity.InstrumentInfo `json:"instruments"`
}

type Handler struct {
	gatewayService      *gateway.StandardsGatewayService
	orderManagerService *ordermanager.OrderManagerService
}

func NewStandardsHTTPHandler(gatewayService *gateway.StandardsGatewayService, orderManagerService *ordermanager.OrderManagerService) *Handler {
	return &Handler{
		gatewayService:      gatewayService,
		orderManagerService: orderManagerService,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/standards/v1/symbols/exchange", h.ExchangeSymbol)
	mux.HandleFunc("/standards/v1/symbols/standard", h.StandardSymbol)
	mux.HandleFunc("/standards/v1/channels", h.Channel)
	mux.HandleFunc("/standards/v1/options", h.Option)
	mux.HandleFunc("/standards/v1/timestamps", h.Timestamp)
	mux.HandleFunc("/standards/v1/exchanges/info", h.ExchangeInfo)
	mux.HandleFunc("/standards/v1/exchanges/warm", h.Warm)
	mux.HandleFunc("/standards/v1/orders/payload", h.OrderPayload)
}

func (h *Handler) ExchangeSymbol(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	exchange, ok := exchangeParam(w, r)
	if !ok {
		return
	}

	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "symbol is required"})
		return
	}

	native, err := h.gatewayService.Standards().Registry.ToExchange(symbol, exchange)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SymbolResponse{
		Exchange:       exchange,
		Symbol:         symbol,
		ExchangeSymbol: native,
	})
}

// StandardSymbol searches every warmed exchange unless exchange is given.
func (h *Handler) StandardSymbol(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	native := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if native == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "symbol is required"})
		return
	}

	registry := h.gatewayService.Standards().Registry

	var (
		exchange entity.ExchangeName
		standard string
		found    bool
	)
	if raw := r.URL.Query().Get("exchange"); raw != "" {
		parsed, err := entity.ParseExchangeName(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		exchange = parsed
		standard, found = registry.ToStandardOn(exchange, native)
	} else {
		standard, found = registry.ToStandard(native)
	}

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "symbol is not known"})
		return
	}

	writeJSON(w, http.StatusOK, SymbolResponse{
		Exchange:       exchange,
		Symbol:         standard,
		ExchangeSymbol: native,
	})
}

func (h *Handler) Channel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	exchange, ok := exchangeParam(w, r)
	if !ok {
		return
	}

	channels := h.gatewayService.Standards().Channels
	raw := strings.TrimSpace(r.URL.Query().Get("channel"))
	if raw == "" {
		resp := make([]NativeResponse, 0)
		for _, channel := range channels.Channels() {
			resp = append(resp, nativeResponse(exchange, string(channel), channels.Lookup(channel, exchange)))
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	native, err := channels.Translate(entity.Channel(raw), exchange, true)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nativeResponse(exchange, raw, standards.Lookup{State: standards.LookupFound, Value: native}))
}

func (h *Handler) Option(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	exchange, ok := exchangeParam(w, r)
	if !ok {
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("option"))
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "option is required"})
		return
	}

	native, err := h.gatewayService.Standards().Options.Normalize(exchange, entity.TradingOption(raw))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nativeResponse(exchange, raw, standards.Lookup{State: standards.LookupFound, Value: native}))
}

func (h *Handler) Timestamp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	exchange, ok := exchangeParam(w, r)
	if !ok {
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("ts"))
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "ts is required"})
		return
	}

	timestamps := h.gatewayService.Standards().Timestamps
	seconds, err := timestamps.Normalize(exchange, raw)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TimestampResponse{
		Exchange:  exchange,
		Class:     timestamps.Class(exchange).String(),
		Timestamp: seconds,
	})
}

func (h *Handler) ExchangeInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	exchange, ok := exchangeParam(w, r)
	if !ok {
		return
	}

	pairs, instruments, err := h.gatewayService.Standards().Registry.Info(r.Context(), exchange)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, InfoResponse{
		Exchange:    exchange,
		Pairs:       pairs,
		Instruments: instruments,
	})
}

func (h *Handler) Warm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	defer r.Body.Close()

	var req WarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}

	if err := validateAPIKey(resolveAPIKey(r, req.ApiKey)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
		return
	}

	exchange, err := entity.ParseExchangeName(req.Exchange)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	if req.Broadcast {
		err := h.gatewayService.RequestWarm(r.Context(), exchange, req.Reset)
		if err != nil {
			switch {
			case errors.Is(err, gateway.ErrJetstreamUnavailable):
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error()})
			case errors.Is(err, gateway.ErrPublishWarmFailed):
				writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
			default:
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			}
			return
		}

		writeJSON(w, http.StatusAccepted, WarmAsyncResponse{Exchange: exchange, Status: "queued"})
		return
	}

	event, err := h.gatewayService.Warm(r.Context(), exchange, req.Reset)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// OrderPayload builds and dispatches the native order body. It never places
// an order by itself; what happens to the payload is up to the dispatcher.
func (h *Handler) OrderPayload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	defer r.Body.Close()

	var req OrderPayloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}

	if err := validateAPIKey(resolveAPIKey(r, req.ApiKey)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
		return
	}

	if strings.TrimSpace(req.Exchange) == "" || strings.TrimSpace(req.Symbol) == "" || strings.TrimSpace(req.Side) == "" || strings.TrimSpace(req.Quantity) == "" || len(req.Options) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing required fields"})
		return
	}

	order, err := mapHTTPRequestToOrderRequest(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	payload, err := h.orderManagerService.PlaceOrder(r.Context(), order)
	if err != nil {
		if payload != nil {
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, OrderPayloadResponse{
		Exchange: order.Exchange,
		Payload:  payload,
	})
}

func mapHTTPRequestToOrderRequest(req *OrderPayloadRequest) (entity.OrderRequest, error) {
	exchange, err := entity.ParseExchangeName(req.Exchange)
	if err != nil {
		return entity.OrderRequest{}, err
	}

	price := decimal.Zero
	if strings.TrimSpace(req.Price) != "" {
		price, err = decimal.NewFromString(req.Price)
		if err != nil {
			return entity.OrderRequest{}, errors.New("invalid price")
		}
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return entity.OrderRequest{}, errors.New("invalid quantity")
	}

	options := make([]entity.TradingOption, 0, len(req.Options))
	for _, option := range req.Options {
		options = append(options, entity.TradingOption(strings.ToLower(strings.TrimSpace(option))))
	}

	return entity.OrderRequest{
		Exchange:      exchange,
		Symbol:        strings.TrimSpace(req.Symbol),
		Side:          entity.OrderSide(strings.ToUpper(req.Side)),
		Price:         price,
		Quantity:      quantity,
		Options:       options,
		ClientOrderID: req.ClientOrderID,
	}, nil
}

func nativeResponse(exchange entity.ExchangeName, key string, lookup standards.Lookup) NativeResponse {
	return NativeResponse{
		Exchange: exchange,
		Key:      key,
		State:    lookup.State.String(),
		Native:   lookup.Value,
	}
}

func exchangeParam(w http.ResponseWriter, r *http.Request) (entity.ExchangeName, bool) {
	exchange, err := entity.ParseExchangeName(r.URL.Query().Get("exchange"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return "", false
	}

	return exchange, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, standards.ErrUnsupportedTradingPair),
		errors.Is(err, standards.ErrUnsupportedDataFeed),
		errors.Is(err, standards.ErrUnsupportedTradingOption):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case errors.Is(err, standards.ErrUnknownExchange),
		errors.Is(err, standards.ErrInvalidTimestamp),
		errors.Is(err, ordermanager.ErrInvalidOrder),
		errors.Is(err, ordermanager.ErrUnsupportedExchange):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
