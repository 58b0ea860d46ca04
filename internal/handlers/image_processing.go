package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/profilesketch/sketcher/internal/batch"
)

var errFileTooLarge = errors.New("file too large (max 10MB)")

// readUploads turns the "files" parts of a multipart form into batch files.
// Browsers report each file's lastModified (unix ms) in a parallel
// "lastModified" field; when it is missing the epoch is used.
func readUploads(r *http.Request) ([]batch.ImageFile, error) {
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	modified := r.MultipartForm.Value["lastModified"]

	files := make([]batch.ImageFile, 0, len(headers))
	for i, fh := range headers {
		if fh.Size > maxFileSize {
			return nil, fmt.Errorf("%s: %w", fh.Filename, errFileTooLarge)
		}

		lastModified := time.UnixMilli(0)
		if i < len(modified) {
			if ms, err := strconv.ParseInt(modified[i], 10, 64); err == nil {
				lastModified = time.UnixMilli(ms)
			}
		}

		file, err := batch.FromMultipart(fh, lastModified)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}
