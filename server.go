package main

import (
	"log"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// ConnLimiter caps websocket connections globally and per IP
type ConnLimiter struct {
	mu         sync.Mutex
	ipConns    map[string]int
	totalConns int
}

// NewConnLimiter creates a ConnLimiter
func NewConnLimiter() *ConnLimiter {
	return &ConnLimiter{ipConns: make(map[string]int)}
}

func (l *ConnLimiter) CanAccept(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.totalConns >= maxTotalConns {
		return false
	}
	if l.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (l *ConnLimiter) TrackConnect(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ipConns[ip]++
	l.totalConns++
}

func (l *ConnLimiter) TrackDisconnect(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ipConns[ip]--
	if l.ipConns[ip] <= 0 {
		delete(l.ipConns, ip)
	}
	l.totalConns--
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SetupRoutes configures HTTP routes
func SetupRoutes(game *Game, gateway *ClaimGateway, db *DB, cfg *Config, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()
	limiter := NewConnLimiter()

	// Static client with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		fs.ServeHTTP(w, r)
	}))

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !limiter.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		limiter.TrackConnect(ip)

		client := NewClient(game, limiter, conn, ip)
		go client.WritePump()
		go client.ReadPump()
	})

	// QR code for sharing the join URL
	mux.HandleFunc("GET /join-qr", func(w http.ResponseWriter, r *http.Request) {
		joinURL := "https://" + r.Host + "/"
		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	RegisterRewardRoutes(mux, gateway, db, cfg)

	return mux
}
