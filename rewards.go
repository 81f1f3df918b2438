package main

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// RegisterRewardRoutes mounts the reward/claim HTTP API. This is the
// collaborator boundary: accept a claim credential and a destination
// address, return success/amount/failure-reason.
func RegisterRewardRoutes(mux *http.ServeMux, gateway *ClaimGateway, db *DB, cfg *Config) {
	if gateway == nil {
		return
	}

	mux.HandleFunc("POST /api/rewards/claim", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RoundID string `json:"roundId"`
			Token   string `json:"token"`
			Address string `json:"address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "malformed request"})
			return
		}
		if req.RoundID == "" || req.Token == "" || req.Address == "" {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "roundId, token and address are required"})
			return
		}

		amount, err := gateway.Redeem(req.RoundID, req.Token, req.Address, extractIP(r))
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "amount": amount, "symbol": cfg.RewardSymbol})
	})

	mux.HandleFunc("GET /api/rewards/status/{roundId}", func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": "no claim store"})
			return
		}
		row, err := db.GetClaimByRound(r.PathValue("roundId"))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "lookup failed"})
			return
		}
		if row == nil {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "no claim for this round"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"roundId": row.RoundID,
			"winner":  row.Winner,
			"amount":  row.Amount,
			"status":  row.Status,
		})
	})

	mux.HandleFunc("GET /api/token/info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"symbol":         cfg.RewardSymbol,
			"rewardPerRound": cfg.RewardAmount,
		})
	})

	mux.HandleFunc("GET /api/rewards/pool", func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": "no claim store"})
			return
		}
		minted, redeemed, err := db.PoolTotals()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "lookup failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"minted":      minted,
			"redeemed":    redeemed,
			"outstanding": minted - redeemed,
		})
	})

	// Manual expiry of a stuck claim; requires the admin bearer key
	mux.HandleFunc("POST /api/admin/rewards/expire", func(w http.ResponseWriter, r *http.Request) {
		if !adminAuthorized(r, cfg.AdminKey) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"error": "unauthorized"})
			return
		}
		if db == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": "no claim store"})
			return
		}
		var req struct {
			RoundID string `json:"roundId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoundID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "roundId required"})
			return
		}
		ok, err := db.ExpireClaim(req.RoundID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "update failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"expired": ok})
	})
}

func adminAuthorized(r *http.Request, key string) bool {
	if key == "" {
		return false // admin routes disabled without a configured key
	}
	auth := r.Header.Get("Authorization")
	bearer, found := strings.CutPrefix(auth, "Bearer ")
	if !found {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(bearer), []byte(key)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
