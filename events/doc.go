// Package events carries "message created" notifications from the journal
// to the enrichment workers.
//
// Events travel as JSON envelopes through a Queue. A Consumer pops them and
// hands them to a Dispatcher, which runs the registered Handler on a
// bounded worker pool, retries failures with exponential backoff and sends
// events that never succeed to a DeadLetterSink.
//
// Handlers mark errors that retrying cannot fix by wrapping ErrPermanent.
package events
