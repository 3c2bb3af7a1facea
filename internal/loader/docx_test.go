package loader

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:r><w:t>Accreditation standards apply to </w:t></w:r>
      <w:r><w:rPr><w:b/></w:rPr><w:t>all programmes</w:t></w:r>
      <w:r><w:t>.</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>Panels report within ninety days.</w:t></w:r>
    </w:p>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, dir, name, documentXML string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range []struct{ name, content string }{
		{"[Content_Types].xml", `<?xml version="1.0"?><Types/>`},
		{"word/document.xml", documentXML},
	} {
		f, err := zw.Create(entry.name)
		if err != nil {
			t.Fatalf("creating %s: %v", entry.name, err)
		}
		if _, err := f.Write([]byte(entry.content)); err != nil {
			t.Fatalf("writing %s: %v", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestParseDocxXML(t *testing.T) {
	text, err := parseDocxXML([]byte(docxBody))
	if err != nil {
		t.Fatalf("parseDocxXML: %v", err)
	}

	// Runs within one paragraph concatenate; paragraphs separate by newline.
	if !strings.Contains(text, "Accreditation standards apply to all programmes.") {
		t.Errorf("run text not joined: %q", text)
	}
	lines := strings.Split(text, "\n")
	if len(lines) != 2 || lines[1] != "Panels report within ninety days." {
		t.Errorf("paragraphs not separated: %q", text)
	}
}

func TestParseDocxXML_Malformed(t *testing.T) {
	if _, err := parseDocxXML([]byte("<w:document><unclosed")); err == nil {
		t.Error("expected error for malformed XML")
	}
}

func TestExtractDocx(t *testing.T) {
	dir := t.TempDir()
	path := writeDocx(t, dir, "standards.docx", docxBody)

	text, err := extractDocx(path)
	if err != nil {
		t.Fatalf("extractDocx: %v", err)
	}
	if !strings.Contains(text, "ninety days") {
		t.Errorf("document text missing: %q", text)
	}
}

func TestExtractDocx_MissingDocumentXML(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("word/styles.xml"); err != nil {
		t.Fatalf("creating entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	path := filepath.Join(dir, "empty.docx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing archive: %v", err)
	}

	if _, err := extractDocx(path); err == nil {
		t.Error("expected error for archive without word/document.xml")
	}
}

func TestLoad_DocxDocument(t *testing.T) {
	dir := t.TempDir()
	writeDocx(t, dir, "standards.docx", docxBody)

	l := New(nil, nil)
	docs, warnings, err := l.LoadAll(context.Background(), "accreditation", dir)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	if docs[0].Format != FormatDocx {
		t.Errorf("format = %s, want docx", docs[0].Format)
	}
	if !strings.Contains(docs[0].Content, "all programmes") {
		t.Errorf("content missing: %q", docs[0].Content)
	}
}

func TestLoad_CorruptBinaryWarns(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"broken.pdf", "broken.docx"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("not a real file"), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	l := New(nil, nil)
	docs, warnings, err := l.LoadAll(context.Background(), "faq", dir)
	if err != nil {
		t.Fatalf("corrupt files must warn, not abort: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d documents from corrupt files", len(docs))
	}
	if len(warnings) != 2 {
		t.Errorf("got %d warnings, want 2: %v", len(warnings), warnings)
	}
}
