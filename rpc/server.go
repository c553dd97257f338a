// Package rpc serves the gateway's JSON-RPC interface, the health endpoint,
// and the websocket epoch feed.
package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/agglayer/agglayer-go/clock"
	"github.com/agglayer/agglayer-go/common"
	"github.com/agglayer/agglayer-go/config"
	"github.com/agglayer/agglayer-go/kernel"
	"github.com/agglayer/agglayer-go/log"
	"github.com/agglayer/agglayer-go/storage"
)

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Server owns the HTTP surface of the gateway.
type Server struct {
	cfg    *config.Config
	kernel *kernel.Kernel
	clock  *clock.ClockRef
	store  *storage.ReceiptStore

	hub   *Hub
	conns chan struct{}
}

func NewServer(cfg *config.Config, k *kernel.Kernel, c *clock.ClockRef, store *storage.ReceiptStore) *Server {
	return &Server{
		cfg:    cfg,
		kernel: k,
		clock:  c,
		store:  store,
		conns:  make(chan struct{}, cfg.RPC.MaxConnections),
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	wg := &sync.WaitGroup{}
	s.hub = newHub(ctx, time.Duration(s.cfg.RPC.PingIntervalSeconds)*time.Second)

	wg.Add(2)
	go s.hub.run(wg)
	go s.hub.relayEpochs(s.clock.Subscribe(), wg)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRPC)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(s.hub, w, r, wg)
	})

	// sendTx blocks until settlement, so only the header read is bounded.
	server := &http.Server{
		Addr:              s.cfg.RPCAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info(log.RpcMonitoring, "RPC server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.hub.cancel()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	s.hub.cancel()
	wg.Wait()
	log.Info(log.RpcMonitoring, "RPC server stopped")
	return nil
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	select {
	case s.conns <- struct{}{}:
		defer func() { <-s.conns }()
	default:
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.RPC.MaxRequestBodySize)

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, rpcResponse{JSONRPC: "2.0", Error: parseError(err.Error())})
		return
	}

	resp := s.dispatch(r.Context(), &req)
	writeResponse(w, resp)
}

func (s *Server) dispatch(ctx context.Context, req *rpcRequest) rpcResponse {
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	if req.Method == "" {
		resp.Error = invalidRequestError("missing method")
		return resp
	}

	var result interface{}
	var err *Error

	switch req.Method {
	case "interop_sendTx":
		result, err = s.interopSendTx(ctx, req.Params)
	case "interop_getTxStatus":
		result, err = s.interopGetTxStatus(req.Params)
	case "system_health":
		result = s.health()
	case "system_version":
		result = map[string]string{
			"version": common.Version,
			"commit":  common.GetCommitHash(),
		}
	default:
		err = methodNotFoundError(req.Method)
	}

	if err != nil {
		resp.Error = err
	} else {
		resp.Result = result
	}
	return resp
}

type healthStatus struct {
	Healthy      bool   `json:"healthy"`
	CurrentBlock uint64 `json:"currentBlock"`
	CurrentEpoch uint64 `json:"currentEpoch"`
}

func (s *Server) health() healthStatus {
	return healthStatus{
		Healthy:      true,
		CurrentBlock: s.clock.CurrentBlock(),
		CurrentEpoch: s.clock.CurrentEpoch(),
	}
}

// handleHealth exposes the health check as a plain GET so that load
// balancers need no JSON-RPC client.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.health())
}

func writeResponse(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error(log.RpcMonitoring, "write RPC response", "err", err)
	}
}
