package feature

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tabml/tabkit/cache"
	"github.com/tabml/tabkit/core"
)

// Block is a named group of feature columns, row major. Every block built
// for the same dataset must carry the same number of rows.
type Block struct {
	Names []string
	Rows  [][]float64
}

// Validate checks internal consistency of the block.
func (b *Block) Validate() error {
	if len(b.Names) == 0 {
		return fmt.Errorf("feature block has no columns")
	}
	for i, row := range b.Rows {
		if len(row) != len(b.Names) {
			return fmt.Errorf("feature block row %d has %d values, want %d", i, len(row), len(b.Names))
		}
	}
	return nil
}

// Producer computes one named feature block.
type Producer struct {
	// Name identifies the block and names its cache entry.
	Name string
	// Generate computes the block. It is skipped when a cached entry
	// exists and reuse is enabled.
	Generate func(ctx context.Context) (Block, error)
}

// BuildOptions configure Build and Load.
type BuildOptions struct {
	// Reuse loads existing cache entries instead of regenerating.
	Reuse bool
	// CacheOptions are forwarded to the cache layer (codec, logger).
	CacheOptions []func(o *cache.Options)
}

// WithReuse enables loading previously built blocks.
func WithReuse(reuse bool) func(o *BuildOptions) {
	return func(o *BuildOptions) { o.Reuse = reuse }
}

// WithCacheOptions forwards options to the underlying cache calls.
func WithCacheOptions(optFns ...func(o *cache.Options)) func(o *BuildOptions) {
	return func(o *BuildOptions) { o.CacheOptions = append(o.CacheOptions, optFns...) }
}

func buildOptions(optFns []func(o *BuildOptions)) BuildOptions {
	opts := BuildOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// location maps a block name to its cache entry inside dir.
func location(dir, name string) string {
	return filepath.Join(dir, name+".bin")
}

// Build runs every producer and persists the resulting blocks under dir,
// one cache entry per block. With reuse enabled a producer whose entry
// already exists is not invoked. Returns the blocks in producer order.
func Build(ctx context.Context, dir string, producers []Producer, optFns ...func(o *BuildOptions)) ([]Block, error) {
	opts := buildOptions(optFns)

	blocks := make([]Block, 0, len(producers))
	for _, p := range producers {
		if p.Name == "" {
			return nil, fmt.Errorf("feature producer requires a name")
		}
		if p.Generate == nil {
			return nil, fmt.Errorf("feature producer %q has no generate function", p.Name)
		}
		gen := p.Generate
		cached := cache.Cached(location(dir, p.Name), func(ctx context.Context) (Block, error) {
			b, err := gen(ctx)
			if err != nil {
				return Block{}, err
			}
			if err := b.Validate(); err != nil {
				return Block{}, fmt.Errorf("producer %q: %w", p.Name, err)
			}
			return b, nil
		}, append([]func(o *cache.Options){cache.WithReuse(opts.Reuse)}, opts.CacheOptions...)...)

		b, err := cached(ctx)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// LoadOptions configure Load.
type LoadOptions struct {
	// Labels is attached to the assembled dataset as the target column.
	Labels []float64
	// Categorical lists column names treated as categorical.
	Categorical []string
	// CacheOptions are forwarded to the cache layer.
	CacheOptions []func(o *cache.Options)
}

// Load reads the named blocks from dir and concatenates them column-wise
// into a single dataset. Block order fixes column order. All blocks must
// have the same row count.
func Load(dir string, names []string, optFns ...func(o *LoadOptions)) (*core.Dataset, error) {
	opts := LoadOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no feature blocks requested")
	}

	blocks := make([]Block, 0, len(names))
	for _, name := range names {
		b, err := cache.Load[Block](location(dir, name), opts.CacheOptions...)
		if err != nil {
			return nil, fmt.Errorf("load feature block %q: %w", name, err)
		}
		blocks = append(blocks, b)
	}
	return Concat(blocks, func(o *core.DatasetOptions) {
		o.Labels = opts.Labels
		o.Categorical = opts.Categorical
	})
}

// Concat joins blocks column-wise into a dataset. Duplicate column names
// across blocks are rejected by dataset construction.
func Concat(blocks []Block, optFns ...func(o *core.DatasetOptions)) (*core.Dataset, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no feature blocks to concatenate")
	}
	rows := len(blocks[0].Rows)
	var names []string
	for i, b := range blocks {
		if len(b.Rows) != rows {
			return nil, fmt.Errorf("feature block %d has %d rows, want %d", i, len(b.Rows), rows)
		}
		names = append(names, b.Names...)
	}

	data := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		row := make([]float64, 0, len(names))
		for _, b := range blocks {
			row = append(row, b.Rows[r]...)
		}
		data[r] = row
	}
	return core.NewDataset(names, data, optFns...)
}
