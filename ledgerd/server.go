package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/mdlayher/vsock"

	"github.com/cloudx-io/openledger/core"
	"github.com/cloudx-io/openledger/ledgerapi"
)

// LedgerServer serves one auction ledger over vsock, and optionally over HTTP
type LedgerServer struct {
	cfg     *Config
	service *LedgerService
}

// NewLedgerServer creates a server for service using cfg
func NewLedgerServer(cfg *Config, service *LedgerService) *LedgerServer {
	return &LedgerServer{
		cfg:     cfg,
		service: service,
	}
}

func (s *LedgerServer) Start() error {
	if s.cfg.HTTPAddr != "" {
		httpServer := &http.Server{
			Addr:         s.cfg.HTTPAddr,
			Handler:      NewHTTPBridge(s.service).SetupRoutes(),
			ReadTimeout:  s.cfg.ReadTimeout,
			WriteTimeout: s.cfg.ReadTimeout,
		}
		go func() {
			log.Printf("INFO: HTTP bridge listening on %s", s.cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("ERROR: HTTP bridge stopped: %v", err)
			}
		}()
	}

	listener, err := vsock.Listen(s.cfg.VsockPort, nil)
	if err != nil {
		return fmt.Errorf("failed to create vsock listener: %w", err)
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Printf("ERROR: Failed to close listener: %v", err)
		}
	}()

	log.Printf("INFO: Ledger server listening on vsock port %d", s.cfg.VsockPort)

	return s.serve(listener)
}

// serve accepts connections until the listener is closed
func (s *LedgerServer) serve(listener net.Listener) error {
	semaphore := make(chan struct{}, s.cfg.MaxWorkers)

	log.Printf("INFO: Worker pool initialized with %d max concurrent workers", s.cfg.MaxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("listener closed: %w", err)
			}
			log.Printf("ERROR: Failed to accept connection: %v", err)
			continue
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }() // Release worker slot
				s.handleConnection(c)
			}(conn)
		default:
			log.Printf("INFO: No workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				log.Printf("ERROR: Failed to close rejected connection: %v", err)
			}
		}
	}
}

func (s *LedgerServer) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Panic recovered in handleConnection: %v", r)
		}
		if err := conn.Close(); err != nil {
			log.Printf("ERROR: Failed to close connection: %v", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

	// One JSON request per connection
	var raw json.RawMessage
	if err := json.NewDecoder(conn).Decode(&raw); err != nil {
		log.Printf("ERROR: Failed to read request: %v", err)
		return
	}

	response := s.dispatch(raw)

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(response); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

// dispatch routes a raw request by its type field and returns the response to encode
func (s *LedgerServer) dispatch(raw []byte) any {
	var baseReq ledgerapi.BaseRequest
	if err := json.Unmarshal(raw, &baseReq); err != nil {
		log.Printf("ERROR: Failed to decode base request: %v", err)
		return errorResponse(fmt.Sprintf("Failed to decode request: %v", err), ledgerapi.ErrorCodeInvalidRequest)
	}

	log.Printf("INFO: Received request type: %s", baseReq.Type)

	switch baseReq.Type {
	case ledgerapi.RequestTypePing:
		return map[string]any{
			"type":      "pong",
			"message":   "Ledger server is healthy",
			"timestamp": time.Now().Unix(),
		}

	case ledgerapi.RequestTypeKey:
		keyResp, err := s.service.HandleKeyRequest()
		if err != nil {
			log.Printf("ERROR: Key request failed: %v", err)
			return errorResponse(fmt.Sprintf("Key request failed: %v", err), ledgerapi.ErrorCodeInternal)
		}
		return keyResp

	case ledgerapi.RequestTypeSubmitBid:
		var bidReq ledgerapi.SubmitBidRequest
		if err := json.Unmarshal(raw, &bidReq); err != nil {
			log.Printf("ERROR: Failed to decode submit_bid request: %v", err)
			return errorResponse(fmt.Sprintf("Failed to decode submit_bid request: %v", err), ledgerapi.ErrorCodeInvalidRequest)
		}
		return s.service.HandleSubmitBid(bidReq)

	case ledgerapi.RequestTypeCalculateWinner:
		return s.service.HandleCalculateWinner()

	case ledgerapi.RequestTypeWinningAddress:
		return s.service.HandleWinningAddress()

	case ledgerapi.RequestTypeAuctionState:
		return s.service.HandleAuctionState()

	default:
		return errorResponse(fmt.Sprintf("Unknown request type: %s", baseReq.Type), ledgerapi.ErrorCodeInvalidRequest)
	}
}

func errorResponse(message, code string) ledgerapi.ErrorResponse {
	return ledgerapi.ErrorResponse{
		Type:      "error",
		Message:   message,
		ErrorCode: code,
	}
}

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	clock := core.SystemClock{}
	deadline, err := cfg.ResolveDeadline(clock.Now())
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	keyManager, err := NewKeyManager()
	if err != nil {
		log.Fatalf("ERROR: failed to initialize key manager: %v", err)
	}
	log.Printf("INFO: KeyManager initialized")

	attester, err := getEnclaveAttester()
	if err != nil {
		log.Printf("WARNING: %v (winner receipts will not be attested)", err)
	}

	ledger := core.NewAuctionLedger(clock, deadline)
	service, err := NewLedgerService(ledger, clock, keyManager, attester)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	log.Printf("INFO: Auction %s open until %s", service.AuctionID(), deadline.Format(time.RFC3339))

	log.Fatal(NewLedgerServer(cfg, service).Start())
}
