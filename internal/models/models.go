package models

import (
	"time"
)

type User struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type Wallet struct {
	Username      string  `json:"username,omitempty"`
	WalletBalance float64 `json:"wallet_balance"`
}

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

type Transaction struct {
	ID          int64           `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Timestamp   string          `json:"timestamp"`
}

// GPUNode is a compute node as listed by the backend. NodeKey is only present
// in the public details listing and is required to submit a job to the node.
type GPUNode struct {
	ID            int64    `json:"id"`
	OwnerID       int64    `json:"owner_id"`
	Location      string   `json:"location"`
	GPUModel      string   `json:"gpu_model"`
	GPUCount      int      `json:"gpu_count"`
	IsOnline      bool     `json:"is_online"`
	PricePerHour  *float64 `json:"price_per_hour,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	LastActive    string   `json:"last_active,omitempty"`
	LastHeartbeat string   `json:"last_heartbeat,omitempty"`
	NodeKey       string   `json:"node_key,omitempty"`
}

const JobStatusCompleted = "completed"

type Job struct {
	ID      int64   `json:"id"`
	Command string  `json:"command"`
	Status  string  `json:"status"`
	Result  *string `json:"result,omitempty"`
}

func (j Job) Completed() bool {
	return j.Status == JobStatusCompleted
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

type TopUpRequest struct {
	Amount float64 `json:"amount"`
}

type RegisterNodeRequest struct {
	Location     string `json:"location"`
	GPUModel     string `json:"gpu_model"`
	GPUCount     Number `json:"gpu_count"`
	PricePerHour Number `json:"price_per_hour"`
}

type PriceUpdateRequest struct {
	PricePerHour float64 `json:"price_per_hour"`
	Currency     string  `json:"currency"`
}

type SubmitJobRequest struct {
	NodeID  Number `json:"node_id"`
	NodeKey string `json:"node_key"`
	Command string `json:"command"`
}

// SimulatedCompletion is the payload returned by the completion trigger.
type SimulatedCompletion struct {
	ID     int64  `json:"id"`
	Status string `json:"status,omitempty"`
}

const displayTimeLayout = "2006-01-02 15:04:05"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses the timestamp formats the backend emits. Zone-less
// values are taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LocalTime renders a backend timestamp in the local zone, or returns it
// unchanged when it cannot be parsed.
func LocalTime(s string) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return s
	}
	return t.Local().Format(displayTimeLayout)
}
