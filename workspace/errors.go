package workspace

import "errors"

var (
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrMissingMigration   = errors.New("missing migration")
	ErrNoStore            = errors.New("no store configured")
)
