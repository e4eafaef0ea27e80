// Package store defines the persistence contracts the scheduler core
// depends on, along with the sentinel errors shared by all backends.
package store
