// Package metadata defines the records persisted by the package store
// (status.json, package.json and the hotcodepush.json diff manifest), the
// optional Hash type used for the current and previous pointers, and schema
// validated JSON read/write helpers.
package metadata
