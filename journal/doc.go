// Package journal accepts new journal messages from users.
//
// Submitting a message persists it unclassified and announces it with a
// message/created event. Enrichment happens asynchronously in whatever
// consumes that event; Submit never waits for it.
//
// Deleting a message also removes what enrichment derived from it: the
// media score and the message's vector namespace.
package journal
