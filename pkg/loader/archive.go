package loader

import (
	"context"

	"texturestream/pkg/bufferpool"
)

// Archive is the consumed interface onto the pack archive: a read-only,
// content-addressed blob store that lends the pool's buffers to its own
// reads. It is an external collaborator — the pack file format itself is
// out of scope for this module. pkg/archive ships two reference
// implementations used by tests and the demo CLI; production embedders
// supply their own.
type Archive interface {
	// ReadFileWithPool reads name's contents, drawing the returned slice's
	// backing capacity from pool where possible. It returns an empty,
	// non-nil slice on miss or error — that is not itself an error from the
	// loader pool's perspective, only a LoadResult with empty FileBytes.
	ReadFileWithPool(ctx context.Context, name string, pool *bufferpool.Pool) []byte
}
