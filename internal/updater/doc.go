// Package updater manages the versioned package store of one application.
//
// A package is downloaded into <appRoot>/<hash>, unpacked when it is a zip,
// merged with the current package when it only carries a diff, and finally
// made current by Install, which flips the pointers in status.json. Rollback
// restores the previous package and deletes the abandoned one.
//
// Manager does no locking. Callers must serialize Stage, Install, Rollback,
// Prune and Clear for the same application: the status record is read,
// modified and written without any guard, and two interleaved callers lose
// one of the updates.
package updater
