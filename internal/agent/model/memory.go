package model

import (
	"context"
	"time"
)

// MemoryStore keeps cross-thread memory per user. Reads of a missing value return ok=false
// and no error. Writes overwrite.
type MemoryStore interface {
	GetSummary(ctx context.Context, userID string) (summary string, ok bool, err error)
	SetSummary(ctx context.Context, userID, summary string) error
	GetLastSymbol(ctx context.Context, userID string) (symbol string, ok bool, err error)
	SetLastSymbol(ctx context.Context, userID, symbol string) error
}

// Turn is one completed invocation checkpointed on its thread.
type Turn struct {
	Request     string    `json:"request"`
	Category    Category  `json:"category"`
	Symbol      string    `json:"symbol,omitempty"`
	FinalAnswer string    `json:"final_answer"`
	At          time.Time `json:"at"`
}

// ThreadRepository persists the turns of a thread.
type ThreadRepository interface {
	// AppendTurn adds a turn to the end of the thread.
	AppendTurn(ctx context.Context, threadID string, turn Turn) error

	// LoadTurns returns the thread's turns oldest first; an unknown thread yields none.
	LoadTurns(ctx context.Context, threadID string) ([]Turn, error)

	// ClearThread removes every turn of the thread.
	ClearThread(ctx context.Context, threadID string) error

	// TurnCount returns the number of stored turns.
	TurnCount(ctx context.Context, threadID string) (int, error)
}
