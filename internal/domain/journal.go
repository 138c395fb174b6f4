package domain

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is a manually recorded trade owned by a user
type JournalEntry struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	SignalID       *uuid.UUID `json:"signal_id,omitempty"`
	EntryDate      time.Time  `json:"entry_date"`
	Pair           string     `json:"pair"`
	Side           Side       `json:"side"`
	EntryPrice     float64    `json:"entry_price"`
	StopLoss       float64    `json:"stop_loss"`
	TakeProfit     float64    `json:"take_profit"`
	SetupNotes     *string    `json:"setup_notes,omitempty"`
	ExitPrice      *float64   `json:"exit_price,omitempty"`
	ProfitLoss     *float64   `json:"profit_loss,omitempty"`
	Outcome        Outcome    `json:"outcome,omitempty"`
	TradeNotes     *string    `json:"trade_notes,omitempty"`
	LessonsLearned *string    `json:"lessons_learned,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
