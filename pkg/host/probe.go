package host

import (
	"context"
	"os"

	"viewstate/pkg/docid"
)

// Probe checks whether the resource behind an identity still exists.
// Only meaningful for file-backed identities; the reconciler never probes
// any other scheme.
type Probe interface {
	Exists(ctx context.Context, id docid.Identity) (bool, error)
}

// FSProbe probes file-backed identities against the local filesystem.
type FSProbe struct{}

// Exists stats the identity's path. A missing file is (false, nil); any
// other stat failure is returned as an error, which the reconciler also
// treats as "not verifiable as existing".
func (FSProbe) Exists(_ context.Context, id docid.Identity) (bool, error) {
	path := id.Filepath()
	if path == "" {
		return false, os.ErrInvalid
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
