package control

import "time"

// Request is one JSON line sent to the daemon's control socket.
type Request struct {
	Op   string `json:"op"`
	Text string `json:"text,omitempty"`
}

type Status struct {
	Running    bool      `json:"running"`
	UptimeSec  float64   `json:"uptime_sec"`
	Aliases    []string  `json:"aliases"`
	Configured bool      `json:"configured"`
	Messages   int64     `json:"messages"`
	FlaggedN   int64     `json:"flagged_total"`
	Flagged    []Flagged `json:"flagged"`
}

type SimpleResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// AliasesResponse lists the aliases currently in effect.
type AliasesResponse struct {
	Aliases []string `json:"aliases"`
}

// CheckResponse answers a "check" request.
type CheckResponse struct {
	Match bool   `json:"match"`
	Alias string `json:"alias,omitempty"`
}

// Flagged is a recent message that mentioned an alias.
type Flagged struct {
	Sender       string    `json:"sender,omitempty"`
	Conversation string    `json:"conversation,omitempty"`
	Text         string    `json:"text"`
	Alias        string    `json:"alias"`
	Timestamp    time.Time `json:"timestamp"`
}
