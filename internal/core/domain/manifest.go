package domain

import (
	"strconv"
	"strings"
	"time"
)

// ManifestDateLayout is the layout of the Date header. Times are rendered in UTC.
const ManifestDateLayout = time.RFC1123

const checksumSection = "SHA256"

// ManifestEntry is one checksum line of the manifest.
type ManifestEntry struct {
	Digest string
	Size   int64
	Path   string
}

// Line renders the entry as it appears below the SHA256 header.
func (e ManifestEntry) Line() string {
	return " " + e.Digest + " " + strconv.FormatInt(e.Size, 10) + " " + e.Path
}

// ManifestHeader holds the repository-wide fields of the manifest.
type ManifestHeader struct {
	Codename      string
	Architectures []string
	Components    []string
	Date          time.Time
}

func (h ManifestHeader) fields() []Field {
	return []Field{
		{Name: "Codename", Value: h.Codename},
		{Name: "Architectures", Value: strings.Join(h.Architectures, " ")},
		{Name: "Components", Value: strings.Join(h.Components, " ")},
		{Name: "Date", Value: h.Date.UTC().Format(ManifestDateLayout)},
	}
}

// RenderManifest builds the manifest text from scratch. An empty entry list is valid.
func RenderManifest(h ManifestHeader, entries []ManifestEntry) string {
	var b strings.Builder
	for _, f := range h.fields() {
		b.WriteString(f.String())
		b.WriteByte('\n')
	}
	b.WriteString(checksumSection + ":\n")
	for _, e := range entries {
		b.WriteString(e.Line())
		b.WriteByte('\n')
	}
	return b.String()
}

// SpliceManifest rewrites an existing manifest. Entries whose path matches an existing
// checksum line replace it in place; the rest are appended to the checksum section.
// The Date, Architectures and Components headers are refreshed from h. Existing lines
// for which keep returns false are dropped; a nil keep retains every line.
func SpliceManifest(text string, h ManifestHeader, entries []ManifestEntry, keep func(path string) bool) string {
	pending := make(map[string]ManifestEntry, len(entries))
	for _, e := range entries {
		pending[e.Path] = e
	}
	headers := make(map[string]string)
	for _, f := range h.fields()[1:] {
		headers[f.Name] = f.String()
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if text == "" {
		lines = nil
	}
	out := make([]string, 0, len(lines)+len(entries)+1)
	sectionEnd := -1
	inSection := false
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if line != "" && (line[0] == ' ' || line[0] == '\t') {
			fields := strings.Fields(line)
			if inSection && len(fields) == 3 {
				path := fields[2]
				if e, ok := pending[path]; ok {
					out = append(out, e.Line())
					delete(pending, path)
					sectionEnd = len(out)
					continue
				}
				if keep != nil && !keep(path) {
					continue
				}
			}
			out = append(out, line)
			if inSection {
				sectionEnd = len(out)
			}
			continue
		}

		name, _, _ := strings.Cut(line, ":")
		inSection = name == checksumSection
		if replacement, ok := headers[name]; ok {
			out = append(out, replacement)
			continue
		}
		out = append(out, line)
		if inSection {
			sectionEnd = len(out)
		}
	}

	var appended []string
	for _, e := range entries {
		if _, ok := pending[e.Path]; ok {
			appended = append(appended, e.Line())
			delete(pending, e.Path)
		}
	}
	if len(appended) > 0 {
		if sectionEnd < 0 {
			out = append(out, checksumSection+":")
			sectionEnd = len(out)
		}
		tail := append(appended, out[sectionEnd:]...)
		out = append(out[:sectionEnd], tail...)
	}
	return strings.Join(out, "\n") + "\n"
}
