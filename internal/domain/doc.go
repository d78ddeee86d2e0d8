// Package domain contains the core entities of the artifact pipeline:
// generation requests, cache entries, and artifact handles. It is
// independent of any transport, storage, or delivery mechanism.
package domain
