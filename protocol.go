package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin     = "j"
	MsgMove     = "m"
	MsgShoot    = "sh"
	MsgSpectate = "sp"
)

// Server -> Client message types
const (
	MsgJoined     = "j"
	MsgState      = "s"
	MsgAck        = "ack"
	MsgFlavor     = "c"
	MsgKill       = "k"
	MsgRoundStart = "rs"
	MsgRoundEnd   = "re"
	MsgClaimToken = "claimToken"
	MsgArenaSize  = "as"
	MsgHit        = "hit"
	MsgLootPickup = "lp"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids
// double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is sent once per connection to enter the arena
type JoinMsg struct {
	Name      string `json:"n"`
	Character int    `json:"ch"`
	Token     string `json:"tk,omitempty"`  // optional session token from a previous connection
	Binary    bool   `json:"bin,omitempty"` // request msgpack state frames
}

// MoveMsg proposes a new position; the server clamps and validates it
type MoveMsg struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"a"`
	Seq   uint32  `json:"seq"`
}

// SpectateMsg selects the camera target while dead
type SpectateMsg struct {
	TargetID string `json:"ti"`
}

// PlayerState is the full-precision per-entity representation
type PlayerState struct {
	ID        string  `json:"i"`
	Name      string  `json:"n"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Angle     float64 `json:"a"`
	Health    int     `json:"h"`
	Shield    int     `json:"sh"`
	Weapon    int     `json:"w"`
	Alive     bool    `json:"v"`
	Color     string  `json:"c"`
	Character int     `json:"ch"`
	Kills     int     `json:"k"`
}

// FarPlayerState is the reduced-precision form for entities outside the
// viewer's area of interest, sent on a slower cadence
type FarPlayerState struct {
	ID string  `json:"i"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// BulletState is broadcast per nearby bullet
type BulletState struct {
	ID    uint64  `json:"i"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Color string  `json:"c"`
}

// LootState is broadcast per nearby loot item
type LootState struct {
	ID     uint64  `json:"i"`
	Type   int     `json:"tp"`
	Weapon int     `json:"w,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// StateMsg is the per-tick, per-client delta snapshot
type StateMsg struct {
	Players []PlayerState    `json:"p"`
	Far     []FarPlayerState `json:"f,omitempty"`
	Bullets []BulletState    `json:"b"`
	Loot    []LootState      `json:"l"`

	// Shared per-tick metadata, computed once and reused across clients
	Phase     int      `json:"ph"`
	Round     int      `json:"r"`
	Tick      uint64   `json:"tk"`
	ArenaSize float64  `json:"as"` // current storm half-extent
	Count     int      `json:"pc"` // connected count
	Alive     int      `json:"ac"`
	TimeLeft  float64  `json:"tl"`
	NextRound float64  `json:"nr,omitempty"` // countdown/intermission seconds
	Lobby     []string `json:"lb,omitempty"`
}

// JoinedMsg is the join ack carrying the full initial state
type JoinedMsg struct {
	ID        string             `json:"i"`
	Token     string             `json:"tk"`
	Player    PlayerState        `json:"p"`
	Weapons   []WeaponDef        `json:"wt"`
	Board     []LeaderboardEntry `json:"lb"`
	Winners   []RecentWinner     `json:"rw"`
	Phase     int                `json:"ph"`
	Round     int                `json:"r"`
	ArenaSize float64            `json:"as"`
}

// AckMsg echoes a move's sequence number with the server-accepted position,
// enabling client-side reconciliation
type AckMsg struct {
	Seq uint32  `json:"seq"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

// FlavorMsg carries templated announcer text
type FlavorMsg struct {
	Text string `json:"m"`
}

// KillMsg feeds the kill ticker
type KillMsg struct {
	KillerID   string `json:"kid"`
	KillerName string `json:"kn"`
	VictimID   string `json:"vid"`
	VictimName string `json:"vn"`
}

// HitMsg gives clients impact feedback
type HitMsg struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Damage     int     `json:"dm"`
	VictimID   string  `json:"vid"`
	AttackerID string  `json:"aid"`
}

// LootPickupMsg announces a pickup
type LootPickupMsg struct {
	PlayerID string `json:"pid"`
	LootID   uint64 `json:"lid"`
	Type     int    `json:"tp"`
}

// RoundStartMsg announces a new round
type RoundStartMsg struct {
	Round   int         `json:"r"`
	Weapons []WeaponDef `json:"wt"`
}

// RoundEndMsg announces the result; the claim summary never carries the
// redemption credential
type RoundEndMsg struct {
	WinnerID   string             `json:"wid,omitempty"`
	WinnerName string             `json:"wn,omitempty"`
	Kills      int                `json:"k"`
	Round      int                `json:"r"`
	Board      []LeaderboardEntry `json:"lb"`
	Claim      *ClaimSummary      `json:"cl,omitempty"`
}

// ClaimTokenMsg is sent only on the winner's own connection
type ClaimTokenMsg struct {
	RoundID string `json:"rid"`
	ClaimID string `json:"cid"`
	Token   string `json:"tok"`
	Amount  int64  `json:"amt"`
}

// ArenaSizeMsg announces a storm shrink
type ArenaSizeMsg struct {
	Size float64 `json:"s"`
}

// RecentWinner is shown in the join ack
type RecentWinner struct {
	Round  int    `json:"r"`
	Name   string `json:"n"`
	Kills  int    `json:"k"`
	Amount int64  `json:"amt"`
}
