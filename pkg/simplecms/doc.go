// Package simplecms provides a headless content management library with
// pluggable repository and blob storage backends.
//
// Content types are declared in YAML or JSON files (see package contenttype).
// Every save creates a new revision in the type's revision table. A revision
// must collect one approval per workflow step before it is publishable; it is
// then copied into the live table, or into the schedule table when its sunrise
// lies in the future. The delivery API only ever reads from live.
//
// File inputs store a path relative to the blob store. Values returned by the
// service carry the absolute path as well, built from the public root the
// service was configured with.
package simplecms
