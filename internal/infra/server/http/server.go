// Package httpserver exposes the portal state layer over HTTP: cart,
// favorites, configurator, and the visitor-session log.
package httpserver

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/lumera/portal/errs"
	"github.com/lumera/portal/internal/cart"
	"github.com/lumera/portal/internal/catalog"
	"github.com/lumera/portal/internal/configurator"
	"github.com/lumera/portal/internal/domain/sessionstore"
	"github.com/lumera/portal/internal/favorites"
	"github.com/lumera/portal/internal/infra/config"
	"github.com/lumera/portal/internal/observability"
)

const (
	maxJSONBodyBytes int64 = 1 << 20 // 1 MiB

	healthPath = "/healthz"

	cartPath         = "/cart"
	cartItemsPath    = cartPath + "/items"
	cartItemPrefix   = cartItemsPath + "/"
	favoritesPath    = "/favorites"
	favoritePrefix   = favoritesPath + "/"
	reconcilePath    = favoritesPath + "/reconcile"
	configuratorPath = "/configurator"
	undoPath         = configuratorPath + "/undo"
	redoPath         = configuratorPath + "/redo"
	savedConfigsPath = configuratorPath + "/configs"
	savedConfigPref  = savedConfigsPath + "/"
	visitorsPath     = "/visitors"
	visitorsSummary  = visitorsPath + "/summary"
	visitorsLivePath = visitorsPath + "/live"
	universePath     = "/catalog/universe"
	stateMetricsPath = "/metrics/state"
	runtimeConfPath  = "/admin/runtime"
)

type handlerFunc func(http.ResponseWriter, *http.Request)

// Deps aggregates the stores and services the handler serves.
type Deps struct {
	Environment config.Environment
	Cart        *cart.Store
	Favorites   *favorites.Store
	Reconciler  *favorites.Reconciler
	History     *configurator.HistoryStore
	Configs     configurator.SavedConfigClient
	Catalog     *catalog.Service
	Sessions    sessionstore.Store
	Metrics     *observability.RuntimeMetrics
	Runtime     *config.RuntimeStore
}

type httpServer struct {
	deps    Deps
	limiter *rate.Limiter
	feed    *liveFeed
}

// NewHandler creates the portal HTTP handler.
func NewHandler(deps Deps) http.Handler {
	if deps.Runtime == nil {
		deps.Runtime, _ = config.NewRuntimeStore(config.DefaultRuntimeConfig())
	}
	ingest := deps.Runtime.Snapshot().Ingest
	server := &httpServer{
		deps:    deps,
		limiter: rate.NewLimiter(rate.Limit(ingest.RatePerSecond), ingest.Burst),
		feed:    newLiveFeed(deps.Metrics),
	}
	mux := http.NewServeMux()

	mux.Handle(healthPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet: server.health,
	}))

	mux.Handle(cartPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet:    server.getCart,
		http.MethodDelete: server.clearCart,
	}))
	mux.Handle(cartItemsPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodPost: server.addCartItem,
	}))
	mux.Handle(cartItemPrefix, http.HandlerFunc(server.handleCartItem))

	mux.Handle(favoritesPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet: server.listFavorites,
	}))
	mux.Handle(reconcilePath, server.methodHandlers(map[string]handlerFunc{
		http.MethodPost: server.reconcileFavorites,
	}))
	mux.Handle(favoritePrefix, http.HandlerFunc(server.handleFavorite))

	mux.Handle(configuratorPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet: server.getConfigurator,
		http.MethodPut: server.applyConfigurator,
	}))
	mux.Handle(undoPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodPost: server.undoConfigurator,
	}))
	mux.Handle(redoPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodPost: server.redoConfigurator,
	}))
	mux.Handle(savedConfigsPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet:  server.listSavedConfigs,
		http.MethodPost: server.saveConfig,
	}))
	mux.Handle(savedConfigPref, http.HandlerFunc(server.handleSavedConfig))

	mux.Handle(visitorsPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet:  server.listVisitors,
		http.MethodPost: server.ingestVisitor,
	}))
	mux.Handle(visitorsSummary, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet: server.visitorSummary,
	}))
	mux.Handle(visitorsLivePath, http.HandlerFunc(server.liveVisitors))

	mux.Handle(universePath, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet: server.getUniverse,
	}))
	mux.Handle(stateMetricsPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet: server.stateMetrics,
	}))
	mux.Handle(runtimeConfPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet: server.getRuntimeConfig,
		http.MethodPut: server.putRuntimeConfig,
	}))

	return withCORS(mux)
}

func (s *httpServer) methodHandlers(handlers map[string]handlerFunc) http.Handler {
	allowed := allowedMethods(handlers)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler(w, r)
			return
		}
		methodNotAllowed(w, allowed...)
	})
}

func allowedMethods(handlers map[string]handlerFunc) []string {
	if len(handlers) == 0 {
		return nil
	}
	allowed := make([]string, 0, len(handlers))
	for method := range handlers {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	return allowed
}

func (s *httpServer) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"environment": string(s.deps.Environment),
	})
}

type addItemPayload struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

type quantityPayload struct {
	Quantity int `json:"quantity"`
}

func (s *httpServer) getCart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Cart.Snapshot())
}

func (s *httpServer) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Cart.Clear(r.Context()); err != nil {
		writeStateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Cart.Snapshot())
}

func (s *httpServer) addCartItem(w http.ResponseWriter, r *http.Request) {
	limitRequestBody(w, r)
	var payload addItemPayload
	if err := decodeBody(r, &payload); err != nil {
		writeDecodeError(w, err)
		return
	}
	if strings.TrimSpace(payload.Product.ID) == "" {
		writeError(w, http.StatusBadRequest, "product.id required")
		return
	}
	if err := s.deps.Cart.AddItem(r.Context(), payload.Product, payload.Quantity); err != nil {
		writeStateError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.deps.Cart.Snapshot())
}

func (s *httpServer) handleCartItem(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, cartItemPrefix), "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "item id required")
		return
	}
	switch r.Method {
	case http.MethodPut:
		limitRequestBody(w, r)
		var payload quantityPayload
		if err := decodeBody(r, &payload); err != nil {
			writeDecodeError(w, err)
			return
		}
		if err := s.deps.Cart.SetQuantity(r.Context(), id, payload.Quantity); err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.deps.Cart.Snapshot())
	case http.MethodDelete:
		if err := s.deps.Cart.RemoveItem(r.Context(), id); err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.deps.Cart.Snapshot())
	default:
		methodNotAllowed(w, http.MethodDelete, http.MethodPut)
	}
}

func (s *httpServer) listFavorites(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"favorites": s.deps.Favorites.IDs()})
}

func (s *httpServer) reconcileFavorites(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reconciler == nil {
		writeError(w, http.StatusServiceUnavailable, "reconciler unavailable")
		return
	}
	if err := s.deps.Reconciler.Reconcile(r.Context()); err != nil {
		writeStateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": s.deps.Favorites.IDs()})
}

func (s *httpServer) handleFavorite(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, favoritePrefix), "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "product id required")
		return
	}
	switch r.Method {
	case http.MethodPut:
		if err := s.deps.Favorites.Add(r.Context(), id); err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"favorites": s.deps.Favorites.IDs()})
	case http.MethodDelete:
		var err error
		if s.deps.Reconciler != nil {
			err = s.deps.Reconciler.RemoveAndSync(r.Context(), id)
		} else {
			err = s.deps.Favorites.Remove(r.Context(), id)
		}
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"favorites": s.deps.Favorites.IDs()})
	default:
		methodNotAllowed(w, http.MethodDelete, http.MethodPut)
	}
}

type configuratorView struct {
	Current configurator.Snapshot `json:"current"`
	CanUndo bool                  `json:"canUndo"`
	CanRedo bool                  `json:"canRedo"`
	Depth   int                   `json:"depth"`
}

func (s *httpServer) configuratorViewNow() configuratorView {
	h := s.deps.History
	return configuratorView{
		Current: h.Current(),
		CanUndo: h.Index() > 0,
		CanRedo: h.Index() < h.Depth()-1,
		Depth:   h.Depth(),
	}
}

func (s *httpServer) getConfigurator(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.configuratorViewNow())
}

func (s *httpServer) applyConfigurator(w http.ResponseWriter, r *http.Request) {
	limitRequestBody(w, r)
	var snapshot configurator.Snapshot
	if err := decodeBody(r, &snapshot); err != nil {
		writeDecodeError(w, err)
		return
	}
	s.deps.History.Apply(snapshot)
	writeJSON(w, http.StatusOK, s.configuratorViewNow())
}

func (s *httpServer) undoConfigurator(w http.ResponseWriter, _ *http.Request) {
	_, applied := s.deps.History.Undo()
	view := s.configuratorViewNow()
	writeJSON(w, http.StatusOK, map[string]any{"applied": applied, "state": view})
}

func (s *httpServer) redoConfigurator(w http.ResponseWriter, _ *http.Request) {
	_, applied := s.deps.History.Redo()
	view := s.configuratorViewNow()
	writeJSON(w, http.StatusOK, map[string]any{"applied": applied, "state": view})
}

func (s *httpServer) listSavedConfigs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Configs == nil {
		writeError(w, http.StatusServiceUnavailable, "saved configurations unavailable")
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId required")
		return
	}
	configs, err := s.deps.Configs.List(r.Context(), userID)
	if err != nil {
		writeStateError(w, err)
		return
	}
	if configs == nil {
		configs = []configurator.SavedConfig{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"configs": configs})
}

func (s *httpServer) saveConfig(w http.ResponseWriter, r *http.Request) {
	if s.deps.Configs == nil {
		writeError(w, http.StatusServiceUnavailable, "saved configurations unavailable")
		return
	}
	limitRequestBody(w, r)
	var payload configurator.SavedConfig
	if err := decodeBody(r, &payload); err != nil {
		writeDecodeError(w, err)
		return
	}
	saved, err := s.deps.Configs.Save(r.Context(), payload)
	if err != nil {
		writeStateError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *httpServer) handleSavedConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}
	if s.deps.Configs == nil {
		writeError(w, http.StatusServiceUnavailable, "saved configurations unavailable")
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, savedConfigPref), "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "config id required")
		return
	}
	if err := s.deps.Configs.Delete(r.Context(), id); err != nil {
		writeStateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed", "id": id})
}

func (s *httpServer) getUniverse(w http.ResponseWriter, r *http.Request) {
	if s.deps.Catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	universe, err := s.deps.Catalog.Universe(r.Context())
	if err != nil {
		writeStateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ids": universe.IDs()})
}

func (s *httpServer) stateMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Metrics == nil {
		writeJSON(w, http.StatusOK, observability.StateMetricsSnapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Metrics.Snapshot())
}

func (s *httpServer) getRuntimeConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Runtime.Snapshot())
}

func (s *httpServer) putRuntimeConfig(w http.ResponseWriter, r *http.Request) {
	limitRequestBody(w, r)
	var payload config.RuntimeConfig
	if err := decodeBody(r, &payload); err != nil {
		writeDecodeError(w, err)
		return
	}
	updated, err := s.deps.Runtime.Replace(payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.limiter.SetLimit(rate.Limit(updated.Ingest.RatePerSecond))
	s.limiter.SetBurst(updated.Ingest.Burst)
	writeJSON(w, http.StatusOK, updated)
}

func parseBoolParam(values map[string][]string, key string) (*bool, error) {
	raw, ok := values[key]
	if !ok || len(raw) == 0 || strings.TrimSpace(raw[0]) == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw[0]))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseSessionQuery(r *http.Request) (sessionstore.Query, error) {
	values := r.URL.Query()
	var query sessionstore.Query

	if raw := strings.TrimSpace(values.Get("startDate")); raw != "" {
		start, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return query, err
		}
		query.StartDate = start
	}
	hasCustomer, err := parseBoolParam(values, "hasCustomerId")
	if err != nil {
		return query, err
	}
	query.HasCustomerID = hasCustomer

	consent, err := parseBoolParam(values, "consent")
	if err != nil {
		return query, err
	}
	query.Consent = consent

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return query, errors.New("limit must be a non-negative integer")
		}
		query.Limit = limit
	}
	return query, nil
}

func decodeBody(r *http.Request, out any) error {
	defer func() {
		_ = r.Body.Close()
	}()
	return json.NewDecoder(r.Body).Decode(out)
}

func limitRequestBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if isRequestTooLarge(err) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func isRequestTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

// writeStateError maps the errs taxonomy onto HTTP statuses.
func writeStateError(w http.ResponseWriter, err error) {
	switch {
	case errs.IsCode(err, errs.CodeInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errs.IsCode(err, errs.CodeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errs.IsCode(err, errs.CodeNetwork), errs.IsCode(err, errs.CodeUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	case errs.IsCode(err, errs.CodeDecode):
		writeError(w, http.StatusBadGateway, err.Error())
	case errs.IsCode(err, errs.CodeStorage):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "error": message})
}

func withCORS(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
