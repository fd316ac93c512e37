package integrations

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata is what the in-process packager needs from the metadata file
type Metadata struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Language    string `yaml:"lang"`
	Description string `yaml:"description"`
}

// ReadMetadata parses a pandoc metadata file: either a YAML block
// delimited by "---" or a "% title" / "% author" title block.
func ReadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	return ParseMetadata(raw)
}

// ParseMetadata parses metadata file contents
func ParseMetadata(raw []byte) (*Metadata, error) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("---")) {
		block := bytes.TrimPrefix(trimmed, []byte("---"))
		if end := bytes.Index(block, []byte("\n---")); end >= 0 {
			block = block[:end]
		} else if end := bytes.Index(block, []byte("\n...")); end >= 0 {
			block = block[:end]
		}
		var meta Metadata
		if err := yaml.Unmarshal(block, &meta); err != nil {
			return nil, fmt.Errorf("failed to parse metadata block: %w", err)
		}
		return &meta, nil
	}

	var (
		meta  Metadata
		field int
	)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "%") {
			break
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, "%"))
		switch field {
		case 0:
			meta.Title = value
		case 1:
			meta.Author = value
		}
		field++
	}
	return &meta, scanner.Err()
}
