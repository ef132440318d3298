// Package platform provides the filesystem operations the package store is
// built on: existence checks, idempotent removal, recursive tree copies that
// preserve permissions, sorted directory listings and renames. Permission
// changes are a no-op on Windows.
package platform
