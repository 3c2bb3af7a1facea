package loader

import (
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown parses a markdown file and returns its plain text,
// dropping formatting, links and code fences' syntax while keeping the
// readable content.
func extractMarkdown(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var sb strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Blank line between blocks keeps paragraph boundaries visible
			// to the chunker.
			if _, ok := n.(*ast.Paragraph); ok {
				sb.WriteString("\n\n")
			}
			if _, ok := n.(*ast.Heading); ok {
				sb.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}

		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString("\n")
			}
		case *ast.CodeBlock:
			writeLines(&sb, t, src)
		case *ast.FencedCodeBlock:
			writeLines(&sb, t, src)
		case *ast.ListItem:
			sb.WriteString("\n")
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}

	return sb.String(), nil
}

func writeLines(sb *strings.Builder, n ast.Node, src []byte) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	sb.WriteString("\n")
}
