package batch

import (
	"errors"
	"fmt"
	"sync"
)

const (
	MinImages = 5
	MaxImages = 20
)

var (
	ErrNoImageFiles     = errors.New("no image files selected")
	ErrIndexOutOfRange  = errors.New("image index out of range")
	ErrBatchSizeInvalid = errors.New("invalid batch size")
	ErrTooFewImages     = fmt.Errorf("%w: at least %d images required", ErrBatchSizeInvalid, MinImages)
	ErrTooManyImages    = fmt.Errorf("%w: at most %d images allowed", ErrBatchSizeInvalid, MaxImages)
)

// Snapshot is a point-in-time copy of the batch
type Snapshot struct {
	Files      []ImageFile
	Generation uint64
}

// Batch is the ordered set of images selected for analysis. Mutations are
// serialized; every mutation bumps the generation and fires the change hook.
type Batch struct {
	mu         sync.Mutex
	files      []ImageFile
	generation uint64
	onChange   func(Snapshot)
}

func New() *Batch {
	return &Batch{}
}

// OnChange registers the hook run after each mutation, outside the lock.
func (b *Batch) OnChange(fn func(Snapshot)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// AddFiles appends the image-typed candidates that are not already present,
// in input order, and returns how many were appended. When no candidate is an
// image the batch is left untouched and ErrNoImageFiles is returned.
func (b *Batch) AddFiles(files []ImageFile) (int, error) {
	images := make([]ImageFile, 0, len(files))
	for _, f := range files {
		if f.IsImage() {
			images = append(images, f)
		}
	}
	if len(images) == 0 {
		return 0, ErrNoImageFiles
	}

	b.mu.Lock()
	seen := make(map[Identity]struct{}, len(b.files)+len(images))
	for _, f := range b.files {
		seen[f.Identity()] = struct{}{}
	}
	added := 0
	for _, f := range images {
		id := f.Identity()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		b.files = append(b.files, f)
		added++
	}
	snap, hook := b.mutatedLocked()
	b.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
	return added, nil
}

// RemoveAt drops the file at index i; later files shift down by one.
func (b *Batch) RemoveAt(i int) error {
	b.mu.Lock()
	if i < 0 || i >= len(b.files) {
		n := len(b.files)
		b.mu.Unlock()
		return fmt.Errorf("%w: %d (batch has %d)", ErrIndexOutOfRange, i, n)
	}
	b.files = append(b.files[:i:i], b.files[i+1:]...)
	snap, hook := b.mutatedLocked()
	b.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
	return nil
}

func (b *Batch) Clear() {
	b.mu.Lock()
	b.files = nil
	snap, hook := b.mutatedLocked()
	b.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
}

func (b *Batch) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

// Files returns a copy of the batch contents in order.
func (b *Batch) Files() []ImageFile {
	return b.Snapshot().Files
}

func (b *Batch) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

func (b *Batch) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Batch) snapshotLocked() Snapshot {
	files := make([]ImageFile, len(b.files))
	copy(files, b.files)
	return Snapshot{Files: files, Generation: b.generation}
}

func (b *Batch) mutatedLocked() (Snapshot, func(Snapshot)) {
	b.generation++
	return b.snapshotLocked(), b.onChange
}

// CheckSize validates a batch size against the submission bounds.
func CheckSize(size int) error {
	switch {
	case size < MinImages:
		return ErrTooFewImages
	case size > MaxImages:
		return ErrTooManyImages
	default:
		return nil
	}
}

// Eligible reports whether a batch of the given size may be submitted.
func Eligible(size int, credentialPresent bool) bool {
	return credentialPresent && CheckSize(size) == nil
}
