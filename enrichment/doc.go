// Package enrichment classifies journal messages and attaches
// category-specific enrichment to them.
//
// The Enricher is the entry point. For every message it:
//   - Asks the classifier model for a category, mood and summary
//   - Parses and normalizes the model output
//   - Writes the classification onto the message in a single update
//   - Routes STUDY messages to the SemanticIndexer and MEDIA messages to
//     the OpinionScorer; every other category needs no further work
//
// Classification and indexing failures are returned to the caller so the
// event host can retry the whole invocation. Opinion scoring is best
// effort: a failed or malformed scoring response is logged and the message
// is left without a score.
//
// Secondary writes are upserts keyed by message ID, so running the pipeline
// again for the same message replaces earlier results instead of
// duplicating them.
package enrichment
