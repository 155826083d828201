package core

import (
	"context"
	"fmt"
)

// UndoResult reports what Undo did per document.
type UndoResult struct {
	RunID     string
	Restored  []string
	Conflicts []string // changed since the run; left alone
	Skipped   []string // failed or already reverted in the run
	Failed    []DocumentOutcome
}

// Undo restores the original content of every document written by run,
// as long as the document still holds exactly what the run wrote.
func Undo(ctx context.Context, store Storage, hist *History, runID string) (*UndoResult, error) {
	id, err := hist.ResolveRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	changes, err := hist.Changes(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &UndoResult{RunID: id}
	for _, ch := range changes {
		if ch.Status != StatusWritten {
			result.Skipped = append(result.Skipped, ch.DocumentID)
			continue
		}
		h := DocumentHandle{ID: ch.DocumentID, Title: basename(ch.DocumentID)}
		current, err := store.Read(ctx, h)
		if err != nil {
			result.Failed = append(result.Failed, DocumentOutcome{DocumentID: ch.DocumentID, Err: err})
			continue
		}
		if current != ch.NewContent {
			result.Conflicts = append(result.Conflicts, ch.DocumentID)
			continue
		}
		if err := store.Write(ctx, h, ch.OriginalContent); err != nil {
			result.Failed = append(result.Failed, DocumentOutcome{
				DocumentID: ch.DocumentID,
				Err:        &WriteError{DocumentID: ch.DocumentID, Err: err},
			})
			continue
		}
		if err := hist.markReverted(ctx, ch.ID); err != nil {
			return result, fmt.Errorf("mark %s reverted: %w", ch.DocumentID, err)
		}
		result.Restored = append(result.Restored, ch.DocumentID)
	}
	return result, nil
}
