// Package domain contains the core entities of the study scheduler:
// per-card progress records, quality ratings, study directions, and
// selection decisions. Types here carry their own validation and have
// no dependencies on persistence or transport.
package domain
