// Package store defines the persistence interfaces of the application.
// Concrete implementations live under internal/platform; the pipeline core
// depends only on the interfaces here.
package store
