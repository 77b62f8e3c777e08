// Package simpleingest implements a content ingestion pipeline for
// user-submitted social content: validation and sanitization, per-attachment
// media processing, semantic metadata extraction, persistence and event
// publication.
//
// The orchestrator is created with functional options:
//
//	svc, err := simpleingest.New(
//		simpleingest.WithRepository(repo),
//		simpleingest.WithMediaProcessor(processor),
//		simpleingest.WithPublisher(publisher),
//	)
//
// Validation failure is the single fatal gate of the pipeline. Every later
// stage degrades instead of aborting: a failed media attachment is dropped
// while the rest survive, a failed link enrichment keeps the bare link, and
// event publication is retried but never blocks the stored result. Wrap the
// service with NewResilientService to add a circuit breaker with a
// SERVICE_UNAVAILABLE fallback.
package simpleingest
