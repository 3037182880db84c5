package service

import (
	"fmt"
	"strings"

	"github.com/tieubaoca/docchat-be/types"
	"github.com/tieubaoca/docchat-be/utils"
)

const (
	DefaultHeadingMinLength = 2
	DefaultHeadingMaxLength = 50
	DefaultHeadingForbidden = ".,"
)

// HeadingRules decides which lines of a document look like section titles.
type HeadingRules struct {
	MinLength int    // exclusive lower bound on the trimmed line length
	MaxLength int    // exclusive upper bound on the trimmed line length
	Forbidden string // a heading contains none of these characters
}

func DefaultHeadingRules() HeadingRules {
	return HeadingRules{
		MinLength: DefaultHeadingMinLength,
		MaxLength: DefaultHeadingMaxLength,
		Forbidden: DefaultHeadingForbidden,
	}
}

// NewHeadingRules builds rules from configuration, filling zero values with defaults.
func NewHeadingRules(cfg types.HeadingConfig) (HeadingRules, error) {
	rules := DefaultHeadingRules()
	if cfg.MinLength != 0 {
		rules.MinLength = cfg.MinLength
	}
	if cfg.MaxLength != 0 {
		rules.MaxLength = cfg.MaxLength
	}
	if cfg.Forbidden != "" {
		rules.Forbidden = cfg.Forbidden
	}
	if rules.MinLength < 0 || rules.MaxLength <= rules.MinLength+1 {
		return HeadingRules{}, fmt.Errorf("%w: heading length bounds (%d, %d) admit no line",
			utils.ErrConfiguration, rules.MinLength, rules.MaxLength)
	}
	return rules, nil
}

// IsHeading reports whether line is short, fully upper-case and free of sentence punctuation.
func (r HeadingRules) IsHeading(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) <= r.MinLength || len(line) >= r.MaxLength {
		return false
	}
	if line != strings.ToUpper(line) {
		return false
	}
	return !strings.ContainsAny(line, r.Forbidden)
}

var categoryKeywords = []struct {
	category types.SectionCategory
	keywords []string
}{
	{types.SectionSummary, []string{"summary", "profile"}},
	{types.SectionSkills, []string{"skill", "technology"}},
	{types.SectionExperience, []string{"experience", "employment", "work", "internship"}},
	{types.SectionProjects, []string{"project", "academic"}},
	{types.SectionEducation, []string{"education"}},
	{types.SectionCertifications, []string{"certification"}},
}

// Classify maps a heading to its section category. The first matching keyword
// set wins; headings matching nothing are OTHER.
func Classify(heading string) types.SectionCategory {
	h := strings.ToLower(heading)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(h, kw) {
				return entry.category
			}
		}
	}
	return types.SectionOther
}
