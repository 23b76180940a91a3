// Package catalog provides the type-safe Go definitions, storage contracts and
// Redis key schema for the classify content catalog.
//
// # Overview
//
// The catalog is made of two logically separate stores:
//
//   - a ContentStore holding one Record per classified piece of content, keyed by ID
//   - a TagIndex mapping every tag to the set of content IDs that carry it, plus
//     the global set of known tags
//
// The two stores share no transaction. Writers (the orchestrator) keep them
// coherent by ordering their writes and surfacing partial failures; readers
// tolerate the two known inconsistency windows (an unindexed record, or an
// indexed ID whose record is gone).
//
// # Backends
//
// Concrete backends live in sub-packages and are selected once at startup:
//
//	fsstore     - one JSON file per record
//	redisstore  - Redis content store and Redis tag index
//	s3store     - one JSON object per record in an S3 bucket
//	sqlitestore - one row per record in SQLite
//
// # Redis Schema
//
// All Redis keys are namespaced so several deployments can share one server:
//
// Content: classify:{namespace}:content:{id}
// Hash index: classify:{namespace}:hash:{content_hash}:contents
// Tag membership: classify:{namespace}:tag:{tag}:contents
// Global tag set: classify:{namespace}:tags
//
// # Usage Example
//
//	rec, err := catalog.NewRecord("Some article about cooking", []string{"cooking"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := contents.Put(ctx, rec); err != nil {
//		log.Fatal(err)
//	}
//	if err := tags.AddContentToTags(ctx, rec.ID, rec.Tags); err != nil {
//		// rec exists but is not yet reachable by tag query
//	}
package catalog
