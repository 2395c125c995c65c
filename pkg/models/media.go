package models

import (
	"path"
	"strings"
)

// MediaKind is the media category used to pick comparison views
type MediaKind string

const (
	KindUnknown MediaKind = "unknown"
	KindImage   MediaKind = "image"
	KindText    MediaKind = "text"
	KindVideo   MediaKind = "video"
	KindAudio   MediaKind = "audio"
	KindOffice  MediaKind = "office"
)

var kindExtensions = []struct {
	kind MediaKind
	exts map[string]bool
}{
	{KindImage, set("jpg", "jpeg", "png", "gif", "bmp", "webp", "svg", "tif", "tiff")},
	{KindText, set("txt", "md", "csv", "json", "xml", "html", "htm", "log", "yaml", "yml", "ini", "java", "js", "ts", "go", "py", "css", "sql")},
	{KindVideo, set("mp4", "webm", "mov", "avi", "mkv")},
	{KindAudio, set("mp3", "wav", "ogg", "flac", "aac", "m4a")},
	{KindOffice, set("pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "odp", "rtf")},
}

var kindContentTypes = []struct {
	kind     MediaKind
	prefixes []string
}{
	{KindImage, []string{"image/"}},
	{KindText, []string{"text/", "application/json", "application/xml", "application/javascript"}},
	{KindVideo, []string{"video/"}},
	{KindAudio, []string{"audio/"}},
	{KindOffice, []string{"application/pdf", "application/msword", "application/vnd.openxmlformats-officedocument", "application/vnd.ms-", "application/vnd.oasis.opendocument", "application/rtf"}},
}

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// Classify determines the media kind from the declared file type, the file name extension
// and the HTTP content type. Either signal matching a category is sufficient.
func Classify(fileType, fileName, contentType string) MediaKind {
	declared := normalizeExt(fileType)
	ext := normalizeExt(path.Ext(fileName))
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	for i, byExt := range kindExtensions {
		if byExt.exts[declared] || byExt.exts[ext] {
			return byExt.kind
		}
		for _, prefix := range kindContentTypes[i].prefixes {
			if ct != "" && strings.HasPrefix(ct, prefix) {
				return byExt.kind
			}
		}
	}
	return KindUnknown
}

// normalizeExt turns ".PNG", "png" or "image/png" style declarations into "png"
func normalizeExt(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimPrefix(s, ".")
}

// MediaPair is the classification of both sides of a comparison, computed once per result
type MediaPair struct {
	Left  MediaKind
	Right MediaKind
}

// ClassifyPair classifies both sides of a result using the preview content types when known
func ClassifyPair(result *ComparisonResult, leftContentType, rightContentType string) MediaPair {
	return MediaPair{
		Left:  Classify(result.LeftFile.FileType, result.LeftFile.FileName, leftContentType),
		Right: Classify(result.RightFile.FileType, result.RightFile.FileName, rightContentType),
	}
}

// BothImages reports whether both sides are images
func (p MediaPair) BothImages() bool {
	return p.Left == KindImage && p.Right == KindImage
}

// BothText reports whether both sides are text documents
func (p MediaPair) BothText() bool {
	return p.Left == KindText && p.Right == KindText
}
