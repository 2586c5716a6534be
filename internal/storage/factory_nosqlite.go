//go:build !sqlite

package storage

import (
	"errors"
	"fmt"
)

var ErrSQLiteUnavailable = errors.New("sqlite store not compiled in")

func newSQLiteStore(path string) (Store, error) {
	return nil, fmt.Errorf("socialsim store %q: %w; build socialsimctl with -tags sqlite", path, ErrSQLiteUnavailable)
}
