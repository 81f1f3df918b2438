package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionExpiry    = 7 * 24 * time.Hour
	bcryptCost       = 10
	claimRateWindow  = 60 * time.Second
	maxClaimAttempts = 10
)

// ClaimSummary is the public part of a claim, safe to broadcast
type ClaimSummary struct {
	Amount int64  `json:"amt"`
	Symbol string `json:"sym"`
}

// Claim is a minted reward claim. The redemption credential itself is
// returned exactly once at mint time and stored only as a bcrypt hash.
type Claim struct {
	ID      string
	RoundID string
	Winner  string
	Amount  int64
}

// ClaimGateway mints reward claims for round winners and redeems them
// through the HTTP API. It also signs the session tokens handed out at
// join, sharing the persisted HMAC secret.
type ClaimGateway struct {
	db     *DB
	cfg    *Config
	secret []byte

	// Redemption attempt limiting (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewClaimGateway creates the gateway, loading or generating the signing
// secret.
func NewClaimGateway(db *DB, cfg *Config) *ClaimGateway {
	return &ClaimGateway{
		db:      db,
		cfg:     cfg,
		secret:  loadOrCreateSecret(db),
		rateMap: make(map[string]*rateEntry),
	}
}

// loadOrCreateSecret loads the HMAC secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("signing_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate signing secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("signing_secret", hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist signing secret: %v", err)
		}
	}
	return secret
}

// SessionToken signs a JWT binding a player id to its display name, so a
// reconnecting client can resume the same leaderboard identity.
func (cg *ClaimGateway) SessionToken(playerID, name string) (string, error) {
	claims := jwt.MapClaims{
		"pid": playerID,
		"nm":  name,
		"exp": time.Now().Add(sessionExpiry).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cg.secret)
}

// ValidateSession checks a session JWT and returns (playerID, name, error)
func (cg *ClaimGateway) ValidateSession(tokenStr string) (string, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return cg.secret, nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}
	pid, ok := claims["pid"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}
	name, ok := claims["nm"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}
	return pid, name, nil
}

// CreateClaim mints the reward claim for a round winner. Returns the
// claim and the one-time redemption credential; only the credential's
// bcrypt hash is stored. Never called from the tick path directly — the
// round FSM fires it in a goroutine and moves on.
func (cg *ClaimGateway) CreateClaim(ctx context.Context, roundID, winner string, kills int) (*Claim, string, error) {
	if cg.db == nil {
		return nil, "", fmt.Errorf("no claim store")
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	credential := GenerateID(24)
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcryptCost)
	if err != nil {
		return nil, "", err
	}

	claim := &Claim{
		ID:      uuid.NewString(),
		RoundID: roundID,
		Winner:  winner,
		Amount:  cg.cfg.RewardAmount,
	}
	if err := cg.db.InsertClaim(claim.ID, roundID, winner, claim.Amount, string(hash)); err != nil {
		return nil, "", err
	}
	return claim, credential, nil
}

// Redeem checks a credential against the stored hash and flips the claim
// to claimed, recording the destination address.
func (cg *ClaimGateway) Redeem(roundID, credential, walletAddr, ip string) (int64, error) {
	if cg.db == nil {
		return 0, fmt.Errorf("no claim store")
	}
	if !cg.checkRate(ip) {
		return 0, fmt.Errorf("too many attempts, try again later")
	}

	row, err := cg.db.GetClaimByRound(roundID)
	if err != nil {
		return 0, fmt.Errorf("lookup failed")
	}
	if row == nil {
		return 0, fmt.Errorf("no claim for this round")
	}
	if row.Status != ClaimPending {
		return 0, fmt.Errorf("claim already %s", row.Status)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.TokenHash), []byte(credential)); err != nil {
		return 0, fmt.Errorf("invalid claim token")
	}

	ok, err := cg.db.RedeemClaim(row.ID, walletAddr)
	if err != nil || !ok {
		return 0, fmt.Errorf("claim could not be redeemed")
	}
	return row.Amount, nil
}

func (cg *ClaimGateway) checkRate(ip string) bool {
	cg.rateMu.Lock()
	defer cg.rateMu.Unlock()

	now := time.Now()
	entry, ok := cg.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		cg.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(claimRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxClaimAttempts
}
