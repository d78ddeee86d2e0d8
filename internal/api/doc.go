// Package api contains the HTTP handlers for the artifact pipeline:
// submitting generation requests, polling artifact state, fetching cached
// blobs, and purging the cache. Handlers never block on the pipeline;
// submission is fire-and-forget and lookups read current in-memory state.
package api
