package content

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dshills/bigbook-mcp/pkg/types"
)

// MetadataFile is the name of the chapter metadata table inside a content pack
const MetadataFile = "chapters.yaml"

// pageRef is a page bound written either as an arabic number or a roman numeral
type pageRef int

func (p *pageRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: page must be a scalar", value.Line)
	}
	page, err := types.ParsePage(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*p = pageRef(page)
	return nil
}

// chapterEntry is one row of the chapter metadata table
type chapterEntry struct {
	ID     string    `yaml:"id"`
	Title  string    `yaml:"title"`
	Number *int      `yaml:"number"`
	Pages  []pageRef `yaml:"pages"`
	Roman  bool      `yaml:"roman"`
	Source string    `yaml:"source"`
}

type metadata struct {
	Chapters []chapterEntry `yaml:"chapters"`
}

// parseMetadata decodes and sanity-checks the chapter metadata table
func parseMetadata(data []byte) (*metadata, error) {
	var md metadata
	if err := yaml.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", MetadataFile, err)
	}
	if len(md.Chapters) == 0 {
		return nil, errors.New(MetadataFile + ": no chapters defined")
	}

	seen := make(map[string]bool, len(md.Chapters))
	for i, ch := range md.Chapters {
		if ch.ID == "" {
			return nil, fmt.Errorf("%s: chapter %d has no id", MetadataFile, i+1)
		}
		if seen[ch.ID] {
			return nil, fmt.Errorf("%s: duplicate chapter id %q", MetadataFile, ch.ID)
		}
		seen[ch.ID] = true
		if len(ch.Pages) != 2 {
			return nil, fmt.Errorf("%s: chapter %q needs pages: [start, end]", MetadataFile, ch.ID)
		}
		if ch.Source == "" {
			return nil, fmt.Errorf("%s: chapter %q has no source file", MetadataFile, ch.ID)
		}
	}

	return &md, nil
}

func (e chapterEntry) pageRange() types.PageRange {
	return types.PageRange{Start: int(e.Pages[0]), End: int(e.Pages[1])}
}
