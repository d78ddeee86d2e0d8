// Package postgres provides the PostgreSQL implementation of the
// store interfaces, plus the embedded schema migrations. The artifact
// store self-heals a missing or pre-migration schema by re-running
// migrations and degrading the failed operation to a cache miss, so a
// damaged store never takes the pipeline down with it.
package postgres
