package models

import "errors"

// Sentinel errors surfaced by the store and cache layers. Handlers map them to
// envelope codes; everything else becomes an internal error.
var (
	// ErrNotFound means the requested mission (or derived artifact) does not
	// exist in the relational store.
	ErrNotFound = errors.New("requested resource not found")

	// ErrConfigRequired means a KPI-dependent operation was invoked before a
	// KPI config was uploaded.
	ErrConfigRequired = errors.New("kpi config required")
)
