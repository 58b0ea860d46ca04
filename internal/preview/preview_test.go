package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/profilesketch/sketcher/internal/batch"
)

func pngFile(t *testing.T, name string, w, h int) batch.ImageFile {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return batch.FromBytes(name, buf.Bytes(), time.UnixMilli(1))
}

func TestDecode(t *testing.T) {
	r := NewRenderer(64)

	p, err := r.Decode(pngFile(t, "wide.png", 200, 100))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !strings.HasPrefix(p.DataURI, "data:image/jpeg;base64,") {
		t.Errorf("Expected jpeg data URI, got %.40s", p.DataURI)
	}
	if p.Width != 200 || p.Height != 100 {
		t.Errorf("Expected original dimensions 200x100, got %dx%d", p.Width, p.Height)
	}
	if p.TakenAt != nil {
		t.Errorf("Expected no capture time for png, got %v", p.TakenAt)
	}

	again, err := r.Decode(pngFile(t, "wide.png", 200, 100))
	if err != nil || again.DataURI != p.DataURI {
		t.Error("Expected decode to be deterministic")
	}
}

func TestDecodeRejectsBrokenImage(t *testing.T) {
	r := NewRenderer(0)
	broken := batch.FromBytes("broken.png", []byte("\x89PNG\r\n\x1a\ngarbage"), time.Now())

	if _, err := r.Decode(broken); err == nil {
		t.Error("Expected error for corrupt image")
	}
	if r.MaxSize != DefaultMaxSize {
		t.Errorf("Expected default max size %d, got %d", DefaultMaxSize, r.MaxSize)
	}
}

func TestRenderSkipsFailuresAndKeysByIndex(t *testing.T) {
	r := NewRenderer(32)

	files := []batch.ImageFile{}
	for i := 0; i < 5; i++ {
		if i == 2 {
			files = append(files, batch.FromBytes("broken.png", []byte("\x89PNG\r\n\x1a\nxx"), time.Now()))
			continue
		}
		files = append(files, pngFile(t, fmt.Sprintf("img%d.png", i), 40+i, 40))
	}
	snap := batch.Snapshot{Files: files, Generation: 7}

	got := map[int]Preview{}
	for p := range r.Render(context.Background(), snap) {
		got[p.Index] = p
	}

	if len(got) != 4 {
		t.Fatalf("Expected 4 previews, got %d", len(got))
	}
	if _, ok := got[2]; ok {
		t.Error("Expected the broken file to be skipped")
	}
	for i, p := range got {
		if p.Name != files[i].Name {
			t.Errorf("Preview %d carries wrong name %s", i, p.Name)
		}
		if p.Generation != 7 {
			t.Errorf("Expected generation 7, got %d", p.Generation)
		}
	}
}

func TestRenderHonoursCancellation(t *testing.T) {
	r := NewRenderer(32)
	snap := batch.Snapshot{Files: []batch.ImageFile{pngFile(t, "a.png", 10, 10), pngFile(t, "b.png", 10, 10)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count := 0
	for range r.Render(ctx, snap) {
		count++
	}
	if count != 0 {
		t.Errorf("Expected no previews after cancellation, got %d", count)
	}
}
