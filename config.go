package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable the simulation reads. The anti-teleport
// tolerance and AOI radius in particular are empirically tuned numbers,
// so they come from the environment rather than being baked in.
type Config struct {
	TickRate     int // simulation ticks per second
	FarTickEvery int // far entities broadcast every Nth tick

	ArenaHalfExtent float64 // world is a square, origin-centered
	AOIRadius       float64
	HitRadius       float64
	CellSize        float64 // spatial grid cell size
	MoveTolerance   float64 // max accepted displacement per move message

	MaxHealth int
	MaxShield int

	MinPlayers       int
	CountdownSecs    float64
	RoundLimitSecs   float64
	IntermissionSecs float64

	StormStep       float64 // half-extent reduction per shrink
	StormGraceSecs  float64 // warning-to-shrink delay
	StormMinExtent  float64
	StormDmgPerUnit float64 // HP/s per unit of distance outside the zone
	StormDmgCap     float64 // max HP/s from the storm

	// Shrink schedule: fewer players alive, faster shrinks
	StormIntervalLow  float64 // seconds between shrinks at <= StormLowAlive
	StormIntervalMid  float64 // seconds between shrinks at <= StormMidAlive
	StormIntervalHigh float64 // seconds between shrinks above StormMidAlive
	StormLowAlive     int
	StormMidAlive     int

	BulletPoolSize int
	LootPoolSize   int

	RewardAmount int64  // units minted per round win
	RewardSymbol string // display symbol for /api/token/info
	AdminKey     string // bearer key for admin reward routes, empty disables
}

// LoadConfig reads the environment (plus an optional .env file) into a
// Config with defaults for everything unset.
func LoadConfig() *Config {
	// .env is a development convenience; absence is not an error
	_ = godotenv.Load()

	return &Config{
		TickRate:     getEnvInt("TICK_RATE", 30),
		FarTickEvery: getEnvInt("FAR_TICK_EVERY", 4),

		ArenaHalfExtent: getEnvFloat("ARENA_HALF_EXTENT", 2000),
		AOIRadius:       getEnvFloat("AOI_RADIUS", 1200),
		HitRadius:       getEnvFloat("HIT_RADIUS", 30),
		CellSize:        getEnvFloat("GRID_CELL_SIZE", 160),
		MoveTolerance:   getEnvFloat("MOVE_TOLERANCE", 120),

		MaxHealth: getEnvInt("MAX_HEALTH", 150),
		MaxShield: getEnvInt("MAX_SHIELD", 100),

		MinPlayers:       getEnvInt("MIN_PLAYERS", 2),
		CountdownSecs:    getEnvFloat("COUNTDOWN_SECS", 10),
		RoundLimitSecs:   getEnvFloat("ROUND_LIMIT_SECS", 300),
		IntermissionSecs: getEnvFloat("INTERMISSION_SECS", 8),

		StormStep:       getEnvFloat("STORM_STEP", 150),
		StormGraceSecs:  getEnvFloat("STORM_GRACE_SECS", 5),
		StormMinExtent:  getEnvFloat("STORM_MIN_EXTENT", 250),
		StormDmgPerUnit: getEnvFloat("STORM_DMG_PER_UNIT", 0.05),
		StormDmgCap:     getEnvFloat("STORM_DMG_CAP", 60),

		StormIntervalLow:  getEnvFloat("STORM_INTERVAL_LOW", 20),
		StormIntervalMid:  getEnvFloat("STORM_INTERVAL_MID", 35),
		StormIntervalHigh: getEnvFloat("STORM_INTERVAL_HIGH", 50),
		StormLowAlive:     getEnvInt("STORM_LOW_ALIVE", 3),
		StormMidAlive:     getEnvInt("STORM_MID_ALIVE", 6),

		BulletPoolSize: getEnvInt("BULLET_POOL_SIZE", 1024),
		LootPoolSize:   getEnvInt("LOOT_POOL_SIZE", 64),

		RewardAmount: int64(getEnvInt("REWARD_AMOUNT", 1000)),
		RewardSymbol: getEnv("REWARD_SYMBOL", "STRM"),
		AdminKey:     os.Getenv("ADMIN_KEY"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
