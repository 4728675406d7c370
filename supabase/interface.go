package supabase

import (
	"context"
	"time"

	"github.com/creastat/contractbot/conversation"
)

// Store keeps the record of issued contracts in Supabase
type Store interface {
	conversation.Registry

	// GetContract retrieves an issued contract by its sequence number
	GetContract(ctx context.Context, number int) (*Contract, error)

	// Close closes the Supabase client and releases resources
	Close() error
}

// Contract represents an issued contract row
type Contract struct {
	Number       int       `json:"number"`
	ContractID   string    `json:"contract_id"`
	FileName     string    `json:"file_name"`
	IssuedAt     time.Time `json:"issued_at"`
	SessionID    string    `json:"session_id"`
	CustomerName string    `json:"customer_name"`
	Email        string    `json:"email"`
	Telegram     string    `json:"telegram"`
}

func contractFrom(c conversation.IssuedContract) *Contract {
	return &Contract{
		Number:       c.Number,
		ContractID:   c.ContractID,
		FileName:     c.FileName,
		IssuedAt:     c.IssuedAt,
		SessionID:    c.SessionID,
		CustomerName: c.CustomerName,
		Email:        c.Email,
		Telegram:     c.Telegram,
	}
}
