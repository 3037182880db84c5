package service

import (
	"strings"

	"github.com/tieubaoca/docchat-be/types"
)

// SplitSections partitions cleaned text into sections at heading lines.
// Content before the first heading is GENERAL; heading lines themselves are
// not part of any section's content.
func (r HeadingRules) SplitSections(text string) []types.Section {
	var sections []types.Section
	currentHeading := ""
	var buffer []string

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		category := types.SectionGeneral
		if currentHeading != "" {
			category = Classify(currentHeading)
		}
		sections = append(sections, types.Section{
			Category: category,
			Content:  strings.Join(buffer, " "),
		})
		buffer = buffer[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r.IsHeading(line) {
			flush()
			currentHeading = line
			continue
		}
		buffer = append(buffer, line)
	}
	flush()

	return sections
}
