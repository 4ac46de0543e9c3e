package migrations

import (
	"io/fs"

	directory "github.com/goliatone/go-directory"
)

func init() {
	coreFS, err := fs.Sub(directory.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return
	}
	Register(coreFS)
}
