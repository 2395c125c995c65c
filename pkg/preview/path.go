package preview

import (
	"net/url"
	"strings"

	"github.com/sdejongh/doccompare/pkg/models"
)

// unknownSegment replaces absent path segments
const unknownSegment = "Unknown"

// DownloadPath builds the archive download path of a file:
// /documents/download/{branch}/{department}/{year}/{category}/{version}/{fileName}
func DownloadPath(desc models.FileDescriptor, meta models.ContextMetadata) string {
	segments := []string{
		meta.Branch,
		meta.Department,
		meta.Year,
		meta.Category,
		desc.Version,
		desc.FileName,
	}

	var b strings.Builder
	b.WriteString("/documents/download")
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s == "" {
			s = unknownSegment
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
