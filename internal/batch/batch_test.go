package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func image(name string, size int, modified int64) ImageFile {
	data := make([]byte, size)
	copy(data, pngHeader)
	return FromBytes(name, data, time.UnixMilli(modified))
}

func images(n int) []ImageFile {
	files := make([]ImageFile, n)
	for i := range files {
		files[i] = image(fmt.Sprintf("img%d.png", i), 100+i, 1700000000000)
	}
	return files
}

func TestAddFilesDeduplicates(t *testing.T) {
	b := New()

	a := image("a.png", 100, 1)
	c := image("c.png", 100, 1)

	tests := []struct {
		name      string
		input     []ImageFile
		wantAdded int
		wantSize  int
	}{
		{"first add", []ImageFile{a, c}, 2, 2},
		{"exact duplicates skipped", []ImageFile{a, c, a}, 0, 2},
		{"same name different size", []ImageFile{image("a.png", 101, 1)}, 1, 3},
		{"same name different mtime", []ImageFile{image("a.png", 100, 2)}, 1, 4},
		{"duplicate within one call", []ImageFile{image("d.png", 5, 5), image("d.png", 5, 5)}, 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, err := b.AddFiles(tt.input)
			if err != nil {
				t.Fatalf("AddFiles failed: %v", err)
			}
			if added != tt.wantAdded {
				t.Errorf("Expected %d added, got %d", tt.wantAdded, added)
			}
			if b.Size() != tt.wantSize {
				t.Errorf("Expected size %d, got %d", tt.wantSize, b.Size())
			}
		})
	}

	seen := map[Identity]bool{}
	for _, f := range b.Files() {
		if seen[f.Identity()] {
			t.Errorf("Duplicate identity in batch: %+v", f.Identity())
		}
		seen[f.Identity()] = true
	}
}

func TestAddFilesFiltersNonImages(t *testing.T) {
	b := New()
	hookCalls := 0
	b.OnChange(func(Snapshot) { hookCalls++ })

	text := FromBytes("notes.txt", []byte("hello world"), time.Now())
	if _, err := b.AddFiles([]ImageFile{text}); !errors.Is(err, ErrNoImageFiles) {
		t.Fatalf("Expected ErrNoImageFiles, got %v", err)
	}
	if _, err := b.AddFiles(nil); !errors.Is(err, ErrNoImageFiles) {
		t.Fatalf("Expected ErrNoImageFiles for empty input, got %v", err)
	}
	if b.Size() != 0 || b.Generation() != 0 || hookCalls != 0 {
		t.Errorf("Expected no state change, got size=%d generation=%d hooks=%d", b.Size(), b.Generation(), hookCalls)
	}

	added, err := b.AddFiles([]ImageFile{text, image("a.png", 20, 1)})
	if err != nil || added != 1 {
		t.Fatalf("Expected one image added, got %d err=%v", added, err)
	}
	if b.Files()[0].Name != "a.png" {
		t.Errorf("Expected a.png, got %s", b.Files()[0].Name)
	}
}

func TestAddFilesAlwaysNotifies(t *testing.T) {
	b := New()
	var snaps []Snapshot
	b.OnChange(func(s Snapshot) { snaps = append(snaps, s) })

	a := image("a.png", 20, 1)
	_, _ = b.AddFiles([]ImageFile{a})
	_, _ = b.AddFiles([]ImageFile{a})

	if len(snaps) != 2 {
		t.Fatalf("Expected 2 change notifications, got %d", len(snaps))
	}
	if snaps[1].Generation <= snaps[0].Generation {
		t.Errorf("Expected generation to advance, got %d then %d", snaps[0].Generation, snaps[1].Generation)
	}
	if len(snaps[1].Files) != 1 {
		t.Errorf("Expected 1 file in snapshot, got %d", len(snaps[1].Files))
	}
}

func TestRemoveAtKeepsOrder(t *testing.T) {
	b := New()
	if _, err := b.AddFiles(images(6)); err != nil {
		t.Fatalf("AddFiles failed: %v", err)
	}

	if err := b.RemoveAt(2); err != nil {
		t.Fatalf("RemoveAt failed: %v", err)
	}
	if b.Size() != 5 {
		t.Errorf("Expected size 5, got %d", b.Size())
	}

	want := []string{"img0.png", "img1.png", "img3.png", "img4.png", "img5.png"}
	for i, f := range b.Files() {
		if f.Name != want[i] {
			t.Errorf("Index %d: expected %s, got %s", i, want[i], f.Name)
		}
	}

	if err := b.RemoveAt(4); err != nil {
		t.Fatalf("RemoveAt last failed: %v", err)
	}
	if err := b.RemoveAt(0); err != nil {
		t.Fatalf("RemoveAt first failed: %v", err)
	}
	if got := b.Files(); got[0].Name != "img1.png" || got[len(got)-1].Name != "img4.png" {
		t.Errorf("Unexpected order after removals: %v", got)
	}
}

func TestRemoveAtOutOfRange(t *testing.T) {
	b := New()
	_, _ = b.AddFiles(images(2))
	generation := b.Generation()

	for _, i := range []int{-1, 2, 10} {
		if err := b.RemoveAt(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Expected ErrIndexOutOfRange for %d, got %v", i, err)
		}
	}
	if b.Size() != 2 || b.Generation() != generation {
		t.Errorf("Out of range removal must not mutate the batch")
	}
}

func TestClear(t *testing.T) {
	b := New()
	_, _ = b.AddFiles(images(3))
	notified := false
	b.OnChange(func(s Snapshot) { notified = len(s.Files) == 0 })

	b.Clear()

	if b.Size() != 0 {
		t.Errorf("Expected empty batch, got %d", b.Size())
	}
	if !notified {
		t.Error("Expected change hook with empty snapshot")
	}
}

func TestFilesReturnsCopy(t *testing.T) {
	b := New()
	_, _ = b.AddFiles(images(2))

	files := b.Files()
	files[0].Name = "mutated"

	if b.Files()[0].Name != "img0.png" {
		t.Error("Mutating Files() result must not affect the batch")
	}
}

func TestCheckSizeAndEligible(t *testing.T) {
	tests := []struct {
		size       int
		credential bool
		wantErr    error
		eligible   bool
	}{
		{0, true, ErrTooFewImages, false},
		{4, true, ErrTooFewImages, false},
		{5, true, nil, true},
		{5, false, nil, false},
		{20, true, nil, true},
		{21, true, ErrTooManyImages, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("size_%d_cred_%v", tt.size, tt.credential), func(t *testing.T) {
			err := CheckSize(tt.size)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil && !errors.Is(err, ErrBatchSizeInvalid) {
				t.Errorf("Expected error to wrap ErrBatchSizeInvalid, got %v", err)
			}
			if got := Eligible(tt.size, tt.credential); got != tt.eligible {
				t.Errorf("Expected eligible=%v, got %v", tt.eligible, got)
			}
		})
	}
}

func TestLoadDirNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"img10.png", "img2.png", "img1.png", "readme.txt"} {
		data := append([]byte{}, pngHeader...)
		if name == "readme.txt" {
			data = []byte("not an image")
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	files, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	want := []string{"img1.png", "img2.png", "img10.png", "readme.txt"}
	if len(files) != len(want) {
		t.Fatalf("Expected %d files, got %d", len(want), len(files))
	}
	for i, f := range files {
		if f.Name != want[i] {
			t.Errorf("Index %d: expected %s, got %s", i, want[i], f.Name)
		}
	}
	if !files[0].IsImage() || files[3].IsImage() {
		t.Errorf("Unexpected content types: %s, %s", files[0].ContentType, files[3].ContentType)
	}

	data, err := files[0].ReadAll()
	if err != nil || len(data) != len(pngHeader) {
		t.Errorf("Expected to read %d bytes, got %d err=%v", len(pngHeader), len(data), err)
	}
}
