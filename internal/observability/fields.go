package observability

import "go.uber.org/zap"

// Field constructors so callers do not import zap directly.
//
//nolint:gochecknoglobals // aliases of zap constructors
var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Int64    = zap.Int64
	Bool     = zap.Bool
	Float64  = zap.Float64
	Error    = zap.Error
	Any      = zap.Any
	Duration = zap.Duration
)
