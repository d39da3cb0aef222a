package conversations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agdev/finagent/internal/agent/model"
)

// ThreadManager checkpoints completed invocations on their thread.
type ThreadManager struct {
	threadRepo model.ThreadRepository
	maxTurns   int
	now        func() time.Time
}

func NewThreadManager(threadRepo model.ThreadRepository, config model.ThreadConfig) *ThreadManager {
	return &ThreadManager{
		threadRepo: threadRepo,
		maxTurns:   config.MaxTurns,
		now:        time.Now,
	}
}

// Checkpoint records the finished state as one turn of its thread.
func (tm *ThreadManager) Checkpoint(ctx context.Context, st *model.InvocationState) error {
	if st == nil || strings.TrimSpace(st.ThreadID) == "" {
		return nil
	}
	turn := model.Turn{
		Request:     st.Request,
		Category:    st.Category,
		FinalAnswer: st.FinalAnswer,
		At:          tm.now().UTC(),
	}
	if st.Category != model.CategoryChat && !model.IsUnknownSymbol(st.Symbol) {
		turn.Symbol = st.Symbol
	}
	if err := tm.threadRepo.AppendTurn(ctx, st.ThreadID, turn); err != nil {
		return fmt.Errorf("checkpoint thread %s: %w", st.ThreadID, err)
	}
	return nil
}

// History returns at most the configured number of most recent turns.
func (tm *ThreadManager) History(ctx context.Context, threadID string) ([]model.Turn, error) {
	turns, err := tm.threadRepo.LoadTurns(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return trimTail(turns, tm.maxTurns), nil
}

func (tm *ThreadManager) Reset(ctx context.Context, threadID string) error {
	return tm.threadRepo.ClearThread(ctx, threadID)
}

// FormatHistory renders turns as a plain transcript.
func FormatHistory(turns []model.Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] User: %s\n", t.Category, t.Request)
		fmt.Fprintf(&b, "Assistant: %s\n", t.FinalAnswer)
	}
	return b.String()
}

// ====================== Helper function ======================
func trimTail(turns []model.Turn, maxTurns int) []model.Turn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		result := make([]model.Turn, len(turns))
		copy(result, turns)
		return result
	}
	source := turns[len(turns)-maxTurns:]
	result := make([]model.Turn, len(source))
	copy(result, source)
	return result
}
