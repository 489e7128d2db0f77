package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Layr-Labs/tweetproof-go/pkg/metrics"
	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"github.com/Layr-Labs/tweetproof-go/pkg/verifier"
)

// handleVerify handles POST /api/verify
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.ObserveVerify(metrics.ResultMalformed)
			writeJSON(w, http.StatusRequestEntityTooLarge, &types.VerifyResponse{Error: "request body too large"})
			return
		}
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}

	// Unparseable input is an empty request, which can never verify
	var req types.VerifyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.logger.Sugar().Debugw("Treating unparseable verify body as empty",
			"requestId", RequestIDFromContext(r.Context()),
			"error", err,
		)
		s.metrics.ObserveVerify(metrics.ResultMalformed)
		writeJSON(w, http.StatusOK, types.NewVerifyResponse(false))
		return
	}

	// The message is checked exactly as received
	valid := verifier.VerifyTriple(&verifier.Triple{
		Message:      req.Message,
		Signature:    req.Signature,
		PublicKeyB64: req.PublicKeyB64,
	})

	if valid {
		s.metrics.ObserveVerify(metrics.ResultValid)
	} else {
		s.metrics.ObserveVerify(metrics.ResultInvalid)
	}
	writeJSON(w, http.StatusOK, types.NewVerifyResponse(valid))
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, &types.HealthResponse{Status: "ok", Version: Version})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
