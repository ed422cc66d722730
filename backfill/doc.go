// Package backfill enriches messages that never completed enrichment.
//
// Messages stay unclassified when their message/created event was lost or
// every delivery attempt failed. The Backfiller walks them in ID order,
// in batches, and runs the enrichment pipeline for each with retry and
// exponential backoff, reporting progress as it goes.
package backfill
