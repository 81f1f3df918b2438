package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRound(t *testing.T, db *DB, winner string) string {
	t.Helper()
	roundID := uuid.NewString()
	if err := db.RecordRound(roundID, 1, winner, 3, 120); err != nil {
		t.Fatalf("record round: %v", err)
	}
	return roundID
}

func TestClaimMintAndRedeem(t *testing.T) {
	db := testDB(t)
	gw := NewClaimGateway(db, testConfig())
	roundID := testRound(t, db, "Ace")

	claim, cred, err := gw.CreateClaim(context.Background(), roundID, "Ace", 3)
	if err != nil {
		t.Fatalf("create claim: %v", err)
	}
	if claim.Amount != 1000 {
		t.Errorf("expected amount 1000, got %d", claim.Amount)
	}
	if cred == "" {
		t.Fatal("mint must return the redemption credential")
	}

	// The credential never reaches disk in the clear
	row, err := db.GetClaimByRound(roundID)
	if err != nil || row == nil {
		t.Fatalf("claim row missing: %v", err)
	}
	if row.TokenHash == cred {
		t.Error("credential stored unhashed")
	}
	if row.Status != ClaimPending {
		t.Errorf("fresh claim should be pending, got %s", row.Status)
	}

	amount, err := gw.Redeem(roundID, cred, "0xabc123", "10.0.0.1")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if amount != claim.Amount {
		t.Errorf("expected payout %d, got %d", claim.Amount, amount)
	}

	row, _ = db.GetClaimByRound(roundID)
	if row.Status != ClaimClaimed || row.WalletAddr != "0xabc123" {
		t.Errorf("redeemed claim not recorded: %s / %s", row.Status, row.WalletAddr)
	}
}

func TestClaimRedeemRejectsWrongCredential(t *testing.T) {
	db := testDB(t)
	gw := NewClaimGateway(db, testConfig())
	roundID := testRound(t, db, "Ace")
	gw.CreateClaim(context.Background(), roundID, "Ace", 0)

	if _, err := gw.Redeem(roundID, "not-the-credential", "0xabc", "10.0.0.2"); err == nil {
		t.Error("wrong credential should be rejected")
	}
	row, _ := db.GetClaimByRound(roundID)
	if row.Status != ClaimPending {
		t.Error("failed redeem must leave the claim pending")
	}
}

func TestClaimDoubleRedeemRejected(t *testing.T) {
	db := testDB(t)
	gw := NewClaimGateway(db, testConfig())
	roundID := testRound(t, db, "Ace")
	_, cred, _ := gw.CreateClaim(context.Background(), roundID, "Ace", 0)

	if _, err := gw.Redeem(roundID, cred, "0xaaa", "10.0.0.3"); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if _, err := gw.Redeem(roundID, cred, "0xbbb", "10.0.0.3"); err == nil {
		t.Error("second redeem should be rejected")
	}
	row, _ := db.GetClaimByRound(roundID)
	if row.WalletAddr != "0xaaa" {
		t.Error("second redeem must not change the payout address")
	}
}

func TestClaimUnknownRound(t *testing.T) {
	db := testDB(t)
	gw := NewClaimGateway(db, testConfig())
	if _, err := gw.Redeem(uuid.NewString(), "whatever", "0xabc", "10.0.0.4"); err == nil {
		t.Error("redeem against an unknown round should fail")
	}
}

func TestClaimRateLimit(t *testing.T) {
	db := testDB(t)
	gw := NewClaimGateway(db, testConfig())
	roundID := testRound(t, db, "Ace")
	gw.CreateClaim(context.Background(), roundID, "Ace", 0)

	for i := 0; i < maxClaimAttempts; i++ {
		gw.Redeem(roundID, "wrong", "0xabc", "10.0.0.5")
	}
	_, err := gw.Redeem(roundID, "wrong", "0xabc", "10.0.0.5")
	if err == nil || err.Error() != "too many attempts, try again later" {
		t.Errorf("expected rate limit error, got %v", err)
	}

	// A different IP is unaffected
	if _, err := gw.Redeem(roundID, "wrong", "0xabc", "10.0.0.6"); err != nil && err.Error() == "too many attempts, try again later" {
		t.Error("rate limit should be per IP")
	}
}

func TestSessionTokenRoundtrip(t *testing.T) {
	db := testDB(t)
	gw := NewClaimGateway(db, testConfig())

	token, err := gw.SessionToken("pid123", "Ace")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	pid, name, err := gw.ValidateSession(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if pid != "pid123" || name != "Ace" {
		t.Errorf("token roundtrip lost identity: %s / %s", pid, name)
	}

	if _, _, err := gw.ValidateSession("garbage"); err == nil {
		t.Error("garbage token should fail validation")
	}
}

func TestSigningSecretPersists(t *testing.T) {
	db := testDB(t)
	gw1 := NewClaimGateway(db, testConfig())
	token, err := gw1.SessionToken("pid", "Name")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// A second gateway over the same database shares the secret
	gw2 := NewClaimGateway(db, testConfig())
	if _, _, err := gw2.ValidateSession(token); err != nil {
		t.Errorf("token should validate across restarts: %v", err)
	}
}

// A round win must always produce a claim row: the claim references the
// round record, so the round insert has to land before the mint does.
func TestRoundEndMintsClaim(t *testing.T) {
	db := testDB(t)
	cfg := testConfig()
	gw := NewClaimGateway(db, cfg)
	g := NewGame(cfg, db, gw, nil)

	winner, winnerMock := addTestPlayer(g, "Winner")
	loser, loserMock := addTestPlayer(g, "Loser")
	tickUntil(t, g, 30, func() bool { return g.round.Phase == PhaseActive }, "active phase")

	loser.Health = 1
	g.hitPlayer(loser, 18, winner.ID, winner.Name, loser.X, loser.Y)
	g.update(testDt)
	if g.round.Phase != PhaseEnded {
		t.Fatal("expected the round to end")
	}
	roundID := g.round.ID

	deadline := time.Now().Add(5 * time.Second)
	var row *ClaimRow
	for {
		row, _ = db.GetClaimByRound(roundID)
		if row != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("claim never reached the database")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if row.Winner != winner.Name || row.Status != ClaimPending {
		t.Errorf("unexpected claim row: %+v", row)
	}

	// The credential arrives on the winner's connection only
	for len(winnerMock.envelopes(MsgClaimToken)) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("claim token never delivered")
		}
		time.Sleep(10 * time.Millisecond)
	}
	tok := winnerMock.envelopes(MsgClaimToken)[0].Data.(ClaimTokenMsg)
	if tok.RoundID != roundID || tok.Token == "" {
		t.Errorf("bad claim token message: %+v", tok)
	}
	if len(loserMock.envelopes(MsgClaimToken)) != 0 {
		t.Error("claim token leaked to a non-winner connection")
	}

	// And it redeems against the stored round
	if _, err := gw.Redeem(roundID, tok.Token, "0xabc", "10.0.0.9"); err != nil {
		t.Errorf("minted credential should redeem: %v", err)
	}
}

func TestSessionRestoresIdentity(t *testing.T) {
	db := testDB(t)
	cfg := testConfig()
	gw := NewClaimGateway(db, cfg)
	g := NewGame(cfg, nil, gw, nil)

	p1, token := g.AddPlayer("Ace", 0, "", &mockBroadcaster{})
	if token == "" {
		t.Fatal("join should hand out a session token")
	}
	g.RemovePlayer(p1.ID)

	p2, _ := g.AddPlayer("Ignored", 0, token, &mockBroadcaster{})
	if p2.ID != p1.ID || p2.Name != "Ace" {
		t.Errorf("session token should restore identity, got %s / %s", p2.ID, p2.Name)
	}
}
