package main

import (
	"database/sql"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database. The core simulation never touches it on
// the tick path; everything durable (leaderboard, rounds, claims) is
// written from background goroutines.
type DB struct {
	conn *sql.DB
}

// ClaimRow represents a reward claim record
type ClaimRow struct {
	ID         string
	RoundID    string
	Winner     string
	Amount     int64
	TokenHash  string
	Status     string // pending | claimed | expired
	WalletAddr string
	CreatedAt  time.Time
}

// Claim statuses
const (
	ClaimPending = "pending"
	ClaimClaimed = "claimed"
	ClaimExpired = "expired"
)

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL for concurrent readers alongside the writers
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leaderboard (
		name TEXT PRIMARY KEY,
		wins INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		games INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS rounds (
		id TEXT PRIMARY KEY,
		number INTEGER NOT NULL,
		winner_name TEXT NOT NULL DEFAULT '',
		winner_kills INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		round_id TEXT NOT NULL REFERENCES rounds(id),
		winner_name TEXT NOT NULL,
		amount INTEGER NOT NULL,
		token_hash TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		wallet_address TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		claimed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS round_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		round_id TEXT,
		data TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_round ON claims(round_id);
	CREATE INDEX IF NOT EXISTS idx_round_events_round ON round_events(round_id);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// GetSetting reads a settings value, "" when absent
func (db *DB) GetSetting(key string) string {
	var v string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err != nil {
		return ""
	}
	return v
}

// SetSetting upserts a settings value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// BumpLeaderboard accumulates a finished round into a player's row
func (db *DB) BumpLeaderboard(name string, wins, kills int) error {
	_, err := db.conn.Exec(`
		INSERT INTO leaderboard (name, wins, kills, games, updated_at)
		VALUES (?, ?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			wins = wins + excluded.wins,
			kills = kills + excluded.kills,
			games = games + 1,
			updated_at = CURRENT_TIMESTAMP`,
		name, wins, kills,
	)
	return err
}

// TopLeaderboard returns the best players by wins, then kills
func (db *DB) TopLeaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(
		"SELECT name, wins, kills, games FROM leaderboard ORDER BY wins DESC, kills DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.Wins, &e.Kills, &e.Games); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// LeaderboardEntry is one row, shared between memory, DB and the wire
type LeaderboardEntry struct {
	Name  string `json:"n"`
	Wins  int    `json:"w"`
	Kills int    `json:"k"`
	Games int    `json:"g"`
}

// RecordRound persists a finished round
func (db *DB) RecordRound(id string, number int, winnerName string, winnerKills int, duration float64) error {
	_, err := db.conn.Exec(
		"INSERT INTO rounds (id, number, winner_name, winner_kills, duration) VALUES (?, ?, ?, ?, ?)",
		id, number, winnerName, winnerKills, duration,
	)
	return err
}

// RecentWinners returns the latest rounds that produced a winner
func (db *DB) RecentWinners(limit int) ([]RecentWinner, error) {
	rows, err := db.conn.Query(`
		SELECT r.number, r.winner_name, r.winner_kills, COALESCE(c.amount, 0)
		FROM rounds r LEFT JOIN claims c ON c.round_id = r.id
		WHERE r.winner_name != ''
		ORDER BY r.created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RecentWinner
	for rows.Next() {
		var w RecentWinner
		if err := rows.Scan(&w.Round, &w.Name, &w.Kills, &w.Amount); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// InsertClaim stores a freshly minted claim; only the credential's bcrypt
// hash ever reaches disk
func (db *DB) InsertClaim(id, roundID, winner string, amount int64, tokenHash string) error {
	_, err := db.conn.Exec(
		"INSERT INTO claims (id, round_id, winner_name, amount, token_hash) VALUES (?, ?, ?, ?, ?)",
		id, roundID, winner, amount, tokenHash,
	)
	return err
}

// GetClaimByRound returns the claim for a round, nil when none exists
func (db *DB) GetClaimByRound(roundID string) (*ClaimRow, error) {
	row := db.conn.QueryRow(`
		SELECT id, round_id, winner_name, amount, token_hash, status, wallet_address, created_at
		FROM claims WHERE round_id = ?`,
		roundID,
	)
	c := &ClaimRow{}
	err := row.Scan(&c.ID, &c.RoundID, &c.Winner, &c.Amount, &c.TokenHash, &c.Status, &c.WalletAddr, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// RedeemClaim flips a pending claim to claimed, recording the payout
// address. Returns false when the claim was not pending.
func (db *DB) RedeemClaim(id, walletAddr string) (bool, error) {
	res, err := db.conn.Exec(`
		UPDATE claims SET status = ?, wallet_address = ?, claimed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		ClaimClaimed, walletAddr, id, ClaimPending,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ExpireClaim marks a pending claim expired (admin operation)
func (db *DB) ExpireClaim(roundID string) (bool, error) {
	res, err := db.conn.Exec(
		"UPDATE claims SET status = ? WHERE round_id = ? AND status = ?",
		ClaimExpired, roundID, ClaimPending,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// PoolTotals reports minted vs redeemed reward units
func (db *DB) PoolTotals() (minted int64, redeemed int64, err error) {
	err = db.conn.QueryRow(`
		SELECT COALESCE(SUM(amount), 0),
		       COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0)
		FROM claims`, ClaimClaimed,
	).Scan(&minted, &redeemed)
	return
}

// InsertRoundEvents writes a batch of journal events in one transaction
func (db *DB) InsertRoundEvents(events []RoundEvent) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO round_events (event_type, round_id, data, created_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, evt := range events {
		rid := sql.NullString{String: evt.RoundID, Valid: evt.RoundID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, rid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			log.Printf("journal insert error: %v", err)
		}
	}
	return tx.Commit()
}
