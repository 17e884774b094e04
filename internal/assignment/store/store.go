// Package store persists canvassing lists.
package store

import "frontdesk/pkg/platform/sentinel"

// ErrNotFound is returned when no list matches.
var ErrNotFound = sentinel.ErrNotFound
