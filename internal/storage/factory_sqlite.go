//go:build sqlite

package storage

func DefaultStoreKind() string { return "sqlite" }

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}
