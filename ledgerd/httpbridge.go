package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/cloudx-io/openledger/ledgerapi"
)

// maxBidBodyBytes caps the size of a bid request body
const maxBidBodyBytes = 4 << 10

// HTTPBridge exposes the ledger service over HTTP for callers outside the enclave
type HTTPBridge struct {
	service *LedgerService
}

// NewHTTPBridge creates a new HTTP bridge
func NewHTTPBridge(service *LedgerService) *HTTPBridge {
	return &HTTPBridge{service: service}
}

// SetupRoutes configures all HTTP routes
func (h *HTTPBridge) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/key", h.GetKey).Methods(http.MethodGet)
	api.HandleFunc("/bids", h.SubmitBid).Methods(http.MethodPost)
	api.HandleFunc("/finalize", h.CalculateWinner).Methods(http.MethodPost)
	api.HandleFunc("/winner", h.GetWinner).Methods(http.MethodGet)
	api.HandleFunc("/state", h.GetState).Methods(http.MethodGet)

	router.Use(loggingMiddleware)

	return router
}

// HealthCheck returns service health status
func (h *HTTPBridge) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":     "healthy",
		"auction_id": h.service.AuctionID(),
		"time":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HTTPBridge) GetKey(w http.ResponseWriter, r *http.Request) {
	keyResp, err := h.service.HandleKeyRequest()
	if err != nil {
		log.Printf("ERROR: Key request failed: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse("Key request failed", ledgerapi.ErrorCodeInternal))
		return
	}
	respondJSON(w, http.StatusOK, keyResp)
}

// SubmitBid handles bid submission requests
func (h *HTTPBridge) SubmitBid(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBidBodyBytes)

	var bidReq ledgerapi.SubmitBidRequest
	if err := json.NewDecoder(r.Body).Decode(&bidReq); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse("Invalid request body", ledgerapi.ErrorCodeInvalidRequest))
		return
	}
	bidReq.Type = ledgerapi.RequestTypeSubmitBid

	resp := h.service.HandleSubmitBid(bidReq)
	respondJSON(w, statusFor(resp.Success, resp.ErrorCode, http.StatusCreated), resp)
}

// CalculateWinner handles finalization requests
func (h *HTTPBridge) CalculateWinner(w http.ResponseWriter, r *http.Request) {
	resp := h.service.HandleCalculateWinner()
	respondJSON(w, statusFor(resp.Success, resp.ErrorCode, http.StatusOK), resp)
}

func (h *HTTPBridge) GetWinner(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.HandleWinningAddress())
}

func (h *HTTPBridge) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.HandleAuctionState())
}

// statusFor maps a service outcome to an HTTP status code
func statusFor(success bool, errorCode string, successStatus int) int {
	if success {
		return successStatus
	}

	switch errorCode {
	case ledgerapi.ErrorCodeRejectedBid:
		return http.StatusConflict
	case ledgerapi.ErrorCodeNotYetEnded:
		return http.StatusTooEarly
	case ledgerapi.ErrorCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: Failed to encode HTTP response: %v", err)
	}
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("INFO: %s %s (%s)", r.Method, r.RequestURI, time.Since(start))
	})
}
