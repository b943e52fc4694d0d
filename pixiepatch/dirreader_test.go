package pixiepatch

import (
	"os"
	"path/filepath"
)

// dirReader implements Reader by looking up "<root>/<version>/<name>" on
// disk. It mirrors the layout MakeDistribution writes (one directory per
// published version) and is used across the planner/applier tests to stand
// in for a real HTTP or S3 backed Reader.
type dirReader struct {
	root string
}

func (r dirReader) Get(version, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(r.root, version, filepath.FromSlash(name)))
	if err != nil {
		return nil, WrapIOError(err, "failed to fetch "+name+"@"+version)
	}
	return data, nil
}
