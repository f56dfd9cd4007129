package constants

import "strings"

// AllowedExtensions holds the default allowed file extensions for watched
// inbox directories.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// OriginalNameKey is the fixed master-log key carrying the original filename
// of a filed document.
const OriginalNameKey = "original_filename"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
