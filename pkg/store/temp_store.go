package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// MustTempStore returns a Store backed by a temporary file, and a
// cleanup function to call when the Store is no longer used.
func MustTempStore() (Store, func()) {
	dir, err := os.MkdirTemp("", "kiln.test")
	if err != nil {
		panic(fmt.Sprintf("failed to create temp dir: %v", err))
	}
	st, err := NewStore(filepath.Join(dir, "db"))
	if err != nil {
		os.RemoveAll(dir)
		panic(fmt.Sprintf("failed to create store: %v", err))
	}
	return st, func() {
		st.Close()
		if err := os.RemoveAll(dir); err != nil {
			fmt.Fprintln(os.Stderr, "failed to remove temp dir:", err)
		}
	}
}
