package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hupe1980/assocmem/internal/mmap"
)

// File name prefixes of the per-fold inputs.
const (
	FeaturesPrefix = "features"
	LabelsPrefix   = "labels"
)

// FileName returns prefix-NNN.ext, the naming used for every per-fold file.
func FileName(prefix string, index int, ext string) string {
	return fmt.Sprintf("%s-%03d%s", prefix, index, ext)
}

// ReadNPY maps path and decodes it with fn while the mapping is live.
func ReadNPY[T any](path string, fn func(*Array) (T, error)) (T, error) {
	var zero T

	m, err := mmap.Open(path)
	if err != nil {
		return zero, err
	}
	defer m.Close()

	a, err := DecodeNPY(m.Bytes())
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}

	v, err := fn(a)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Load reads features-NNN.npy and labels-NNN.npy from dir.
func Load(dir string, index int) (Fold, error) {
	features, err := ReadNPY(filepath.Join(dir, FileName(FeaturesPrefix, index, ".npy")), (*Array).Matrix)
	if err != nil {
		return Fold{}, err
	}

	labels, err := ReadNPY(filepath.Join(dir, FileName(LabelsPrefix, index, ".npy")), (*Array).Ints)
	if err != nil {
		return Fold{}, err
	}

	f := Fold{Index: index, Features: features, Labels: labels}
	if err := f.Validate(); err != nil {
		return Fold{}, err
	}
	return f, nil
}

// LoadAll loads folds 0..n-1.
func LoadAll(dir string, n int) ([]Fold, error) {
	folds := make([]Fold, 0, n)
	for i := 0; i < n; i++ {
		f, err := Load(dir, i)
		if err != nil {
			return nil, err
		}
		folds = append(folds, f)
	}
	return folds, nil
}

// Save writes f as features-NNN.npy and labels-NNN.npy into dir.
func Save(dir string, f Fold) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	write := func(name string, enc func(*os.File) error) error {
		file, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if err := enc(file); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	}

	if err := write(FileName(FeaturesPrefix, f.Index, ".npy"), func(w *os.File) error {
		return WriteMatrix(w, f.Features)
	}); err != nil {
		return err
	}

	return write(FileName(LabelsPrefix, f.Index, ".npy"), func(w *os.File) error {
		return WriteLabels(w, f.Labels)
	})
}
