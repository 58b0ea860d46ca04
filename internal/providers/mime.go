package providers

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// MIMEType sniffs the content type of a base64 image payload, defaulting to JPEG.
func MIMEType(b64 string) string {
	// 684 base64 chars decode to the 513 bytes DetectContentType needs
	prefix := b64
	if len(prefix) > 684 {
		prefix = prefix[:684]
	}
	prefix = prefix[:len(prefix)-len(prefix)%4]

	head, err := base64.StdEncoding.DecodeString(prefix)
	if err != nil || len(head) == 0 {
		return "image/jpeg"
	}
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return "image/jpeg"
	}
	return contentType
}

// DataURI wraps a base64 image payload for providers that take URLs
func DataURI(b64 string) string {
	return "data:" + MIMEType(b64) + ";base64," + b64
}
