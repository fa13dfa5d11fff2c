// Package dataset loads image-classification test sets laid out one
// directory per class and turns the images into model input tensors.
package dataset

import (
	"context"
	"errors"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Brownie44l1/tl-eval/internal/common"
	"golang.org/x/sync/errgroup"
)

// TestSplit is the directory under the dataset root holding the test images.
const TestSplit = "test"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Sample is one image file and the index of its class.
type Sample struct {
	Path  string
	Label int
}

// Item is a sample with its preprocessed input tensor.
type Item struct {
	Sample
	Input []float32
}

type Options struct {
	// Workers decoding images in parallel. Values below 1 mean 1.
	Workers int
	// Resize scales the shorter image side before cropping; 0 disables it.
	Resize  int
	Seed    uint64
	Shuffle bool
}

// Loader iterates the test split of an image folder dataset.
type Loader struct {
	dir       string
	classes   []string
	samples   []Sample
	transform Transform
	workers   int
}

// Open indexes <root>/test. Every subdirectory is a class; classes are sorted
// by name and images are matched by extension. size is the square crop the
// model expects.
func Open(root string, size int, opts Options) (*Loader, error) {
	dir := filepath.Join(root, TestSplit)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.Wrap(common.ErrPath, "test set not found", err)
		}
		return nil, common.Wrap(common.ErrPath, "read test set", err)
	}

	var classes []string
	var samples []Sample
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		label := len(classes)
		classes = append(classes, entry.Name())

		files, err := os.ReadDir(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, common.Wrap(common.ErrPath, "read class "+entry.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(f.Name()))] {
				continue
			}
			samples = append(samples, Sample{
				Path:  filepath.Join(dir, entry.Name(), f.Name()),
				Label: label,
			})
		}
	}

	if len(classes) == 0 {
		return nil, common.Errorf(common.ErrPath, "no class directories in %s", dir)
	}
	if len(samples) == 0 {
		return nil, common.Errorf(common.ErrPath, "no images in %s", dir)
	}

	if opts.Shuffle {
		rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
		rng.Shuffle(len(samples), func(i, j int) {
			samples[i], samples[j] = samples[j], samples[i]
		})
	}

	return &Loader{
		dir:       dir,
		classes:   classes,
		samples:   samples,
		transform: Transform{Size: size, Resize: opts.Resize},
		workers:   max(opts.Workers, 1),
	}, nil
}

// Classes returns the class names in label order.
func (l *Loader) Classes() []string {
	return append([]string(nil), l.classes...)
}

func (l *Loader) Len() int {
	return len(l.samples)
}

func (l *Loader) Samples() []Sample {
	return append([]Sample(nil), l.samples...)
}

func (l *Loader) Transform() Transform {
	return l.transform
}

// Each decodes every sample exactly once and calls fn with it. Images are
// decoded by the worker pool, so items can arrive out of sample order, but
// fn always runs on a single goroutine. The first error from a worker or
// from fn stops the pass and is returned.
func (l *Loader) Each(ctx context.Context, fn func(Item) error) error {
	g, ctx := errgroup.WithContext(ctx)

	jobs := make(chan Sample)
	items := make(chan Item, l.workers)

	g.Go(func() error {
		defer close(jobs)
		for _, s := range l.samples {
			select {
			case jobs <- s:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for range l.workers {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for s := range jobs {
				img, err := DecodeFile(s.Path)
				if err != nil {
					return err
				}
				item := Item{Sample: s, Input: l.transform.Apply(img)}
				select {
				case items <- item:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(items)
	}()

	g.Go(func() error {
		for item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(item); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}
