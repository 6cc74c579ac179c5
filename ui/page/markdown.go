package page

import (
	"bytes"
	"strings"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md renders task notes. Raw HTML in notes is not passed through.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderNotes converts markdown notes to HTML. On a render error the
// escaped plain text is returned instead.
func RenderNotes(notes string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(notes), &buf); err != nil {
		return "<p>" + templ.EscapeString(notes) + "</p>"
	}
	return buf.String()
}
