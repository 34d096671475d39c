// Package naming derives storage-safe names from captions and source URLs.
package naming

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	unsafeChars      = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	repeatedUnderbar = regexp.MustCompile(`__+`)
)

// Sanitize replaces every character outside [A-Za-z0-9_.-] with an
// underscore, collapses underscore runs, trims leading and trailing
// underscores and lower-cases the result.
func Sanitize(raw string) string {
	s := unsafeChars.ReplaceAllString(raw, "_")
	s = repeatedUnderbar.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	return strings.ToLower(s)
}

// FilenameFromURL returns the percent-decoded last path segment of raw, or ""
// when the path is empty or ends in a slash. Query and fragment are ignored.
func FilenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := u.EscapedPath()
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	name, err := url.PathUnescape(path.Base(p))
	if err != nil {
		return path.Base(p)
	}
	return name
}

// FigureFilename names the PNG for the figure at 0-based index.
func FigureFilename(index int, caption string) string {
	return Sanitize(fmt.Sprintf("figure_%d_%s.png", index+1, caption))
}

// StorageDir is the folder figures of source are stored under.
func StorageDir(source string) string {
	return strings.ReplaceAll(FilenameFromURL(source), ".", "_")
}
