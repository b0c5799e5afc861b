package constants

import "strings"

// ArtifactKind identifies one of the object-store artifacts tied to a receipt.
type ArtifactKind string

const (
	ArtifactOriginal  ArtifactKind = "original"  // uploaded by the user via presigned PUT
	ArtifactProcessed ArtifactKind = "processed" // produced by the preprocessing stage
	ArtifactOCR       ArtifactKind = "ocr"       // document-analysis JSON from the OCR stage
)

// DefaultUploadContentType is assumed when a create request does not name one.
const DefaultUploadContentType = "image/jpeg"

// AllowedUploadContentTypes holds the content types accepted for original uploads.
var AllowedUploadContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/heic": {},
	"image/webp": {},
}

// NormalizeContentType lowercases and strips parameters from a content type.
func NormalizeContentType(ct string) string {
	ct = strings.TrimSpace(strings.ToLower(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
