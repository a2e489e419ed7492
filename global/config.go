package global

import (
	"encoding/json"
	"os"
	"time"

	"PPClient/logger"
	ids "PPClient/tools/ids"
)

const (
	TransportWS   = "ws"
	TransportNats = "nats"
)

// AppConfig carries every knob of the sync client. Timer values are
// milliseconds in the config file; use the *Duration accessors in code.
type AppConfig struct {
	APIBaseURL string `json:"api_base_url"` // REST endpoint, e.g. http://localhost:8080/api
	WSURL      string `json:"ws_url"`       // websocket endpoint, e.g. ws://localhost:8080/ws
	NatsURL    string `json:"nats_url"`     // used when Transport == "nats"
	Transport  string `json:"transport"`    // ws | nats

	PageSize int `json:"page_size"` // history page size

	TypingExpiryMS int `json:"typing_expiry_ms"` // remote typing entry TTL
	TypingIdleMS   int `json:"typing_idle_ms"`   // composer idle -> typing=false

	ConnectTimeoutMS int `json:"connect_timeout_ms"`

	Reconnect          bool `json:"reconnect"`
	ReconnectMinWaitMS int  `json:"reconnect_min_wait_ms"`
	ReconnectMaxWaitMS int  `json:"reconnect_max_wait_ms"`

	DebugAddr  string `json:"debug_addr"`  // diagnostics HTTP listener, empty disables
	DebugToken string `json:"debug_token"` // bearer token guarding DebugAddr, empty = open
	NodeID     int64  `json:"node_id"`
}

// Global holds process-wide defaults; Load overlays a config file.
var Global = AppConfig{
	APIBaseURL:         "http://127.0.0.1:8080/api",
	WSURL:              "ws://127.0.0.1:8080/ws",
	NatsURL:            "nats://127.0.0.1:4222",
	Transport:          TransportWS,
	PageSize:           50,
	TypingExpiryMS:     3000,
	TypingIdleMS:       2000,
	ConnectTimeoutMS:   5000,
	Reconnect:          true,
	ReconnectMinWaitMS: 500,
	ReconnectMaxWaitMS: 30000,
	DebugAddr:          "",
	DebugToken:         "",
	NodeID:             1,
}

// Load overlays Global with values from a JSON config file.
func Load(path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(file, &Global); err != nil {
		return err
	}
	logger.Infof("config loaded from %s", path)
	return nil
}

// ConfigAll applies process-level setup derived from Global.
func ConfigAll() {
	ids.SetNodeID(Global.NodeID)
}

func (c AppConfig) TypingExpiry() time.Duration {
	return time.Duration(c.TypingExpiryMS) * time.Millisecond
}

func (c AppConfig) TypingIdle() time.Duration {
	return time.Duration(c.TypingIdleMS) * time.Millisecond
}

func (c AppConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMS) * time.Millisecond
}

func (c AppConfig) ReconnectMinWait() time.Duration {
	return time.Duration(c.ReconnectMinWaitMS) * time.Millisecond
}

func (c AppConfig) ReconnectMaxWait() time.Duration {
	return time.Duration(c.ReconnectMaxWaitMS) * time.Millisecond
}
