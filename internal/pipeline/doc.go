// Package pipeline implements the asynchronous artifact-generation
// pipeline: a deduplicating request queue, a batch dispatcher that drives
// the generator under a concurrency bound with a join barrier between
// batches, and startup hydration of in-memory handles from the durable
// store.
//
// All queue and bookkeeping state lives behind a single mutex, so state
// transitions are serialized; real concurrency exists only inside a batch,
// where up to BatchSize generation calls run in parallel.
package pipeline
