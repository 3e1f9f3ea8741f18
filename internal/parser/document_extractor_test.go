package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T) *DocumentExtractor {
	t.Helper()
	e, err := NewDocumentExtractor(context.Background(), WithExtractorLogger(zerolog.Nop()))
	require.NoError(t, err)
	return e
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	files := map[string]string{
		"word/document.xml":            `<?xml version="1.0" encoding="UTF-8"?><w:document><w:body>` + body + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships></Relationships>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	e := newTestExtractor(t)
	text, links := e.Extract(context.Background(), "cv.txt", []byte("  Jane Doe\njane@x.com  \n"))
	assert.Equal(t, "Jane Doe\njane@x.com", text)
	assert.Empty(t, links)
}

func TestExtractDocx(t *testing.T) {
	e := newTestExtractor(t)
	data := buildDocx(t,
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>R&amp;D</w:t><w:tab/><w:t>https://github.com/jane</w:t></w:r></w:p>`)

	text, links := e.Extract(context.Background(), "cv.DOCX", data)
	assert.Equal(t, "Jane Doe\nR&D https://github.com/jane", text)
	assert.Equal(t, []string{"https://github.com/jane"}, links)
}

func TestExtractFailuresReturnEmpty(t *testing.T) {
	e := newTestExtractor(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"empty file", "cv.pdf", nil},
		{"unsupported type", "cv.exe", []byte("MZ")},
		{"broken pdf", "cv.pdf", []byte("not a pdf")},
		{"broken docx", "cv.docx", []byte("not a zip")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, links := e.Extract(ctx, tt.filename, tt.data)
			assert.Empty(t, text)
			assert.Empty(t, links)
		})
	}
}
