package orchestrator

import (
	"context"
	"time"

	"github.com/dyluth/classify/pkg/catalog"
)

// ReindexResult summarises a Reindex run.
type ReindexResult struct {
	// Records is the number of stored records whose tags were re-added.
	Records int `json:"records"`

	// Corrupt is the number of stored records that could not be read.
	Corrupt int `json:"corrupt"`

	// Pruned is the number of dangling ID entries removed from tag sets.
	Pruned int `json:"pruned"`

	// RemovedTags lists tags that became empty while pruning.
	RemovedTags []string `json:"removed_tags"`
}

// Reindex repairs the tag index from the content store, which is the
// canonical copy. It:
// 1. Re-adds every stored record's tags (closes the content-written/unindexed window)
// 2. Removes IDs from tag sets when no record exists for them (closes the
//    content-deleted/still-indexed window), dropping tags that become empty
//
// Per-record failures are logged and counted; only failing to list the stores
// aborts the run.
func (e *Engine) Reindex(ctx context.Context) (*ReindexResult, error) {
	startTime := time.Now()
	e.logger.Info("reindex started")

	result := &ReindexResult{RemovedTags: []string{}}

	// Step 1: re-add tags for every stored record
	ids, err := e.content.List(ctx)
	if err != nil {
		return nil, newError(KindStore, "reindex", "", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, newError(KindStore, "reindex", "", err)
		}

		rec, err := e.content.Get(ctx, id)
		if err != nil && !catalog.IsCorrupt(err) {
			return result, newError(KindStore, "reindex", id, err)
		}
		if err != nil {
			e.logger.Warn("skipping unreadable record", "content_id", id, "error", err)
			result.Corrupt++
			continue
		}
		if rec == nil {
			// Deleted since List
			continue
		}

		if err := e.tags.AddContentToTags(ctx, rec.ID, rec.Tags); err != nil {
			return result, newError(KindStore, "reindex", rec.ID, err)
		}
		result.Records++
	}

	// Step 2: prune dangling IDs
	allTags, err := e.tags.ListAllTags(ctx)
	if err != nil {
		return result, newError(KindStore, "reindex", "", err)
	}

	for _, tag := range allTags {
		members, err := e.tags.ListContentIDsForTags(ctx, []string{tag})
		if err != nil {
			return result, newError(KindStore, "reindex", "", err)
		}

		for _, id := range members {
			rec, err := e.content.Get(ctx, id)
			if err != nil || rec != nil {
				// Unreadable or still-present records keep their entries
				continue
			}

			orphaned, err := e.tags.RemoveContentFromTags(ctx, id, []string{tag})
			if err != nil {
				return result, newError(KindStore, "reindex", id, err)
			}
			result.Pruned++
			result.RemovedTags = append(result.RemovedTags, orphaned...)
			e.logger.Debug("pruned dangling id", "content_id", id, "tag", tag)
		}
	}

	e.logger.Info("reindex complete",
		"records", result.Records,
		"corrupt", result.Corrupt,
		"pruned", result.Pruned,
		"removed_tags", result.RemovedTags,
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}
