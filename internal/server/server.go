// Package server exposes the engine state over REST and streams processed
// ticks to WebSocket subscribers.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-portfolio/internal/engine"
	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// Server serves account and market queries over HTTP. The engine is
// single-writer, so every call into it holds the server mutex.
type Server struct {
	mu     sync.Mutex
	engine *engine.Engine
	logger *logger.Logger

	httpServer *http.Server
	listener   net.Listener

	upgrader      websocket.Upgrader
	wsConnections map[*websocket.Conn]bool
	wsMu          sync.RWMutex
}

func NewServer(eng *engine.Engine, log *logger.Logger) *Server {
	return &Server{
		engine: eng,
		logger: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		wsConnections: make(map[*websocket.Conn]bool),
	}
}

// Start listens on the given address. An empty address or ":0" picks a
// random available port.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnknown, "failed to create listener", err)
	}
	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/api/account", s.handleAccount).Methods("GET")
	router.HandleFunc("/api/positions", s.handlePositions).Methods("GET")
	router.HandleFunc("/api/orders", s.handleOrders).Methods("GET")
	router.HandleFunc("/api/orders", s.handlePlaceOrder).Methods("POST")
	router.HandleFunc("/api/orders/{id}", s.handleCancelOrder).Methods("DELETE")
	router.HandleFunc("/api/trades", s.handleTrades).Methods("GET")
	router.HandleFunc("/api/market/{symbol}/history", s.handleHistory).Methods("GET")
	router.HandleFunc("/api/market/{symbol}/daily", s.handleDailyBars).Methods("GET")
	router.HandleFunc("/ws/ticks", s.handleWebSocket)

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop closes subscriber connections and shuts the HTTP server down.
func (s *Server) Stop() error {
	s.wsMu.Lock()
	for conn := range s.wsConnections {
		conn.Close()
	}
	s.wsConnections = make(map[*websocket.Conn]bool)
	s.wsMu.Unlock()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the address the server is listening on.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *Server) BaseURL() string {
	return "http://" + s.Address()
}

// ProcessTick runs the tick through the engine and pushes it to WebSocket
// subscribers.
func (s *Server) ProcessTick(tick types.Tick) (engine.TickResult, error) {
	s.mu.Lock()
	result, err := s.engine.ProcessTick(tick)
	s.mu.Unlock()
	if err != nil {
		return engine.TickResult{}, err
	}

	s.broadcastTick(tick)

	return result, nil
}

func (s *Server) broadcastTick(tick types.Tick) {
	payload, err := json.Marshal(tick)
	if err != nil {
		return
	}

	s.wsMu.RLock()
	defer s.wsMu.RUnlock()
	for conn := range s.wsConnections {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.logger.Debug("Dropping WebSocket subscriber", zap.Error(err))
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeUnknownTicker, errors.ErrCodeTickerNotTracked,
		errors.ErrCodeOrderNotFound, errors.ErrCodePositionNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInsufficientFunds, errors.ErrCodeInsufficientShares,
		errors.ErrCodeInvalidOrder, errors.ErrCodeInvalidQuantity,
		errors.ErrCodeInvalidParameter, errors.ErrCodeEmptyHistory:
		status = http.StatusBadRequest
	}

	s.writeJSON(w, status, map[string]any{
		"code":    errors.GetCode(err),
		"message": err.Error(),
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	account := s.engine.Account()
	response := map[string]any{
		"cash":  account.Cash(),
		"value": account.Value(),
	}
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	positions := s.engine.Account().Positions()
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleOrders(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	orders := s.engine.Account().PendingOrders()
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var order types.PendingOrder
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidOrder, "failed to decode order", err))
		return
	}

	s.mu.Lock()
	placed, err := s.engine.Account().PlaceLimitOrder(order)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, placed)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	s.mu.Lock()
	err := s.engine.Account().CancelLimitOrder(orderID)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"id": orderID})
}

func (s *Server) handleTrades(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	trades, err := s.engine.Journal().AllTrades()
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if trades == nil {
		trades = []types.Trade{}
	}

	s.writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	s.mu.Lock()
	history, err := s.engine.Store().History(symbol)
	var snapshots []types.PriceSnapshot
	if err == nil {
		snapshots = history.Snapshots()
	}
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, snapshots)
}

func (s *Server) handleDailyBars(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	s.mu.Lock()
	bars, err := s.engine.Store().DailyBars(symbol)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if bars == nil {
		bars = []types.DailyBar{}
	}

	s.writeJSON(w, http.StatusOK, bars)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	s.wsMu.Lock()
	s.wsConnections[conn] = true
	s.wsMu.Unlock()

	go func() {
		defer func() {
			s.wsMu.Lock()
			delete(s.wsConnections, conn)
			s.wsMu.Unlock()
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
