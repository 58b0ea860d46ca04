package batch

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/facette/natsort"
)

// sniffLen is how many leading bytes http.DetectContentType looks at
const sniffLen = 512

// ImageFile is a candidate file. Two files with the same name, size and
// modification time are considered the same file.
type ImageFile struct {
	Name         string
	Size         int64
	LastModified time.Time
	ContentType  string

	open func() (io.ReadCloser, error)
}

// Identity is the dedup key of an ImageFile
type Identity struct {
	Name         string
	Size         int64
	LastModified int64 // unix milliseconds, the precision browsers report
}

func (f ImageFile) Identity() Identity {
	return Identity{Name: f.Name, Size: f.Size, LastModified: f.LastModified.UnixMilli()}
}

// IsImage reports whether the file carries an image/* content type
func (f ImageFile) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "image/")
}

func (f ImageFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %s has no content", f.Name)
	}
	return f.open()
}

// ReadAll returns the full contents of the file
func (f ImageFile) ReadAll() ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}

// NewImageFile builds an ImageFile from its metadata and an opener for its bytes.
func NewImageFile(name string, size int64, modified time.Time, contentType string, open func() (io.ReadCloser, error)) ImageFile {
	return ImageFile{
		Name:         name,
		Size:         size,
		LastModified: modified,
		ContentType:  contentType,
		open:         open,
	}
}

// FromBytes wraps in-memory data, sniffing its content type.
func FromBytes(name string, data []byte, modified time.Time) ImageFile {
	return NewImageFile(name, int64(len(data)), modified, sniff(data), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// FromPath stats and sniffs a file on disk. The contents are read lazily.
func FromPath(path string) (ImageFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ImageFile{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return ImageFile{}, fmt.Errorf("%s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return ImageFile{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	f.Close()
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ImageFile{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return NewImageFile(filepath.Base(path), info.Size(), info.ModTime(), sniff(head[:n]), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// LoadDir returns every regular file in dir, in natural filename order
// (img2.jpg before img10.jpg). Non-image files are included; the batch filters them.
func LoadDir(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	natsort.Sort(names)

	files := make([]ImageFile, 0, len(names))
	for _, name := range names {
		file, err := FromPath(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// FromMultipart reads a browser upload into memory; the server removes
// multipart temp files once the request ends. Browsers do not send the file's
// modification time in the part headers, so the caller supplies it.
func FromMultipart(fh *multipart.FileHeader, modified time.Time) (ImageFile, error) {
	f, err := fh.Open()
	if err != nil {
		return ImageFile{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return ImageFile{}, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}

	file := FromBytes(fh.Filename, data, modified)
	if contentType := fh.Header.Get("Content-Type"); contentType != "" && contentType != "application/octet-stream" {
		file.ContentType = contentType
	}
	return file, nil
}

func sniff(data []byte) string {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return http.DetectContentType(data)
}
