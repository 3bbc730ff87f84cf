package pipeline

import (
	"fmt"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
)

// LoadSnapshots reads snapshot files in order. Files ending in .yaml or
// .yml are parsed as YAML, everything else as JSON.
func LoadSnapshots(paths []string) ([]graph.RawSnapshot, error) {
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no snapshot files given")
	}
	snaps := make([]graph.RawSnapshot, 0, len(paths))
	for _, p := range paths {
		if err := errors.ValidatePath(p); err != nil {
			return nil, err
		}
		raw, err := graph.ReadSnapshotFile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		snaps = append(snaps, raw)
	}
	return snaps, nil
}
