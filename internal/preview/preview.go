package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/profilesketch/sketcher/internal/batch"
)

const (
	DefaultMaxSize = 320
	jpegQuality    = 80
)

// Preview is a displayable thumbnail for one batch slot
type Preview struct {
	Index      int        `json:"index"`
	Generation uint64     `json:"generation"`
	Name       string     `json:"name"`
	DataURI    string     `json:"data_uri"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	TakenAt    *time.Time `json:"taken_at,omitempty"`
}

// Renderer turns batch files into JPEG thumbnails encoded as data URIs.
type Renderer struct {
	MaxSize int
}

func NewRenderer(maxSize int) *Renderer {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Renderer{MaxSize: maxSize}
}

// Decode builds the preview for a single file. It has no side effects and
// returns the same result for the same input.
func (r *Renderer) Decode(file batch.ImageFile) (Preview, error) {
	data, err := file.ReadAll()
	if err != nil {
		return Preview{}, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Preview{}, fmt.Errorf("failed to decode %s: %w", file.Name, err)
	}
	bounds := img.Bounds()

	thumb := imaging.Fit(img, r.MaxSize, r.MaxSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return Preview{}, fmt.Errorf("failed to encode preview for %s: %w", file.Name, err)
	}

	return Preview{
		Name:    file.Name,
		DataURI: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		TakenAt: takenAt(data),
	}, nil
}

// takenAt reads the EXIF capture time, if the image carries one
func takenAt(data []byte) *time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	t, err := x.DateTime()
	if err != nil {
		return nil
	}
	return &t
}

// Render decodes every file of the snapshot concurrently. Previews are sent
// as each decode finishes, so arrival order is arbitrary; Index places them.
// Files that fail to decode are logged and skipped. The channel is closed
// once all decodes are done or ctx is cancelled.
func (r *Renderer) Render(ctx context.Context, snap batch.Snapshot) <-chan Preview {
	out := make(chan Preview, len(snap.Files))

	var wg sync.WaitGroup
	for i, file := range snap.Files {
		wg.Add(1)
		go func(index int, file batch.ImageFile) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}

			p, err := r.Decode(file)
			if err != nil {
				slog.Warn("Skipping preview", "name", file.Name, "index", index, "err", err)
				return
			}
			p.Index = index
			p.Generation = snap.Generation

			select {
			case out <- p:
			case <-ctx.Done():
			}
		}(i, file)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
