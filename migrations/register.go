package migrations

import (
	"io/fs"
	"sort"
	"sync"
)

var (
	mu          sync.RWMutex
	filesystems []fs.FS
)

// Register records a filesystem that contains go-directory migrations. Hosts
// feed all registered filesystems into go-persistence-bun (or any other
// migration runner) via Filesystems().
// Each filesystem holds PostgreSQL files at its root and SQLite overrides under
// sqlite/.
func Register(fsys fs.FS) {
	if fsys == nil {
		return
	}
	mu.Lock()
	filesystems = append(filesystems, fsys)
	mu.Unlock()
}

// Filesystems returns a copy of all registered migration filesystems.
func Filesystems() []fs.FS {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]fs.FS, len(filesystems))
	copy(out, filesystems)
	return out
}

// Dialect selects the migration set for a database dialect.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// UpFiles lists the up migrations for dialect across every registered
// filesystem, in apply order.
func UpFiles(dialect Dialect) ([]File, error) {
	pattern := "*.up.sql"
	if dialect == DialectSQLite {
		pattern = "sqlite/*.up.sql"
	}
	var out []File
	for _, fsys := range Filesystems() {
		entries, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		sort.Strings(entries)
		for _, entry := range entries {
			content, err := fs.ReadFile(fsys, entry)
			if err != nil {
				return nil, err
			}
			out = append(out, File{Name: entry, SQL: string(content)})
		}
	}
	return out, nil
}

// File is one migration script.
type File struct {
	Name string
	SQL  string
}
