package content

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/dshills/bigbook-mcp/pkg/types"
)

const pageDirective = "@page"

// ParseChapterSource parses a chapter source file into ordered paragraphs.
// Paragraph ids, orders and chapter back-references are assigned here.
func ParseChapterSource(chapterID string, src []byte) ([]types.Paragraph, error) {
	paragraphs := make([]types.Paragraph, 0)

	page := 0
	havePage := false
	var block []string

	flush := func() {
		if len(block) == 0 {
			return
		}
		text := strings.Join(block, " ")
		block = block[:0]

		italic := false
		if len(text) > 2 && strings.HasPrefix(text, "_") && strings.HasSuffix(text, "_") {
			italic = true
			text = strings.TrimSpace(text[1 : len(text)-1])
		}

		order := len(paragraphs) + 1
		paragraphs = append(paragraphs, types.Paragraph{
			ID:         types.ParagraphID(chapterID, order),
			ChapterID:  chapterID,
			PageNumber: page,
			Content:    text,
			Order:      order,
			IsItalic:   italic,
		})
	}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "#"):
			// comment
		case strings.HasPrefix(line, pageDirective):
			flush()
			label := strings.TrimSpace(strings.TrimPrefix(line, pageDirective))
			p, err := types.ParsePage(label)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", chapterID, lineNo, err)
			}
			page = p
			havePage = true
		default:
			if !havePage {
				return nil, fmt.Errorf("%s:%d: text before first %s directive", chapterID, lineNo, pageDirective)
			}
			block = append(block, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to read source: %w", chapterID, err)
	}
	flush()

	return paragraphs, nil
}
