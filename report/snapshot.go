package report

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/assocmem/bank"
	"github.com/hupe1980/assocmem/blobstore"
	"github.com/hupe1980/assocmem/memory"
	"github.com/hupe1980/assocmem/resource"
	"golang.org/x/sync/errgroup"
)

// SnapshotExt is the extension of memory snapshot blobs.
const SnapshotExt = ".amrm"

// SnapshotName returns the blob name of group g's snapshot.
func SnapshotName(prefix string, g int) string {
	return Indexed(prefix, g) + SnapshotExt
}

// SaveBank writes one compressed snapshot per group, named
// prefix-000.amrm, prefix-001.amrm and so on. rc may be nil.
func SaveBank(ctx context.Context, store blobstore.Store, prefix string, b *bank.Bank, c memory.Compression, rc *resource.Controller) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i := 0; i < b.Len(); i++ {
		m := b.Memory(i)
		g.Go(func() error {
			name := SnapshotName(prefix, i)
			err := blobstore.WriteFile(ctx, store, name, func(w io.Writer) error {
				return m.WriteSnapshot(resource.NewRateLimitedWriter(ctx, w, rc), c)
			})
			if err != nil {
				return fmt.Errorf("snapshot %s: %w", name, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// LoadBank restores a bank of groups memories written by SaveBank. Reads
// are charged to rc's IO budget; rc may be nil.
func LoadBank(ctx context.Context, store blobstore.Store, prefix string, groups int, rc *resource.Controller) (*bank.Bank, error) {
	memories := make([]*memory.Memory, groups)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i := range memories {
		g.Go(func() error {
			name := SnapshotName(prefix, i)

			a, err := store.Open(ctx, name)
			if err != nil {
				return fmt.Errorf("open %s: %w", name, err)
			}
			defer a.Close()

			m, err := memory.ReadSnapshot(resource.NewRateLimitedReader(ctx, a, rc))
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			memories[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return bank.FromMemories(memories)
}
