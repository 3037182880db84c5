package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/docchat-be/types"
	"github.com/tieubaoca/docchat-be/utils"
)

func TestIsHeading(t *testing.T) {
	rules := DefaultHeadingRules()

	tests := []struct {
		line string
		want bool
	}{
		{"WORK EXPERIENCE", true},
		{"  EDUCATION  ", true},
		{"SKILLS & TOOLS", true},
		{"2019 - 2021", true},
		{"AB", false},
		{"Education", false},
		{"B.SC COMPUTER SCIENCE", false},
		{"HANOI, VIETNAM", false},
		{"A VERY LONG UPPER CASE LINE THAT IS CERTAINLY NOT A HEADING", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rules.IsHeading(tt.line), "line %q", tt.line)
	}
}

func TestIsHeadingCustomRules(t *testing.T) {
	rules := HeadingRules{MinLength: 0, MaxLength: 10, Forbidden: ":"}

	assert.True(t, rules.IsHeading("A"))
	assert.True(t, rules.IsHeading("SKILLS."))
	assert.False(t, rules.IsHeading("SKILLS:"))
	assert.False(t, rules.IsHeading("EXPERIENCE"))
}

func TestNewHeadingRules(t *testing.T) {
	rules, err := NewHeadingRules(types.HeadingConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultHeadingRules(), rules)

	rules, err = NewHeadingRules(types.HeadingConfig{MaxLength: 30, Forbidden: ".,:"})
	require.NoError(t, err)
	assert.Equal(t, HeadingRules{MinLength: 2, MaxLength: 30, Forbidden: ".,:"}, rules)

	_, err = NewHeadingRules(types.HeadingConfig{MinLength: 10, MaxLength: 11})
	assert.True(t, errors.Is(err, utils.ErrConfiguration))

	_, err = NewHeadingRules(types.HeadingConfig{MinLength: -1})
	assert.True(t, errors.Is(err, utils.ErrConfiguration))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		heading string
		want    types.SectionCategory
	}{
		{"Professional Experience", types.SectionExperience},
		{"Education", types.SectionEducation},
		{"Random Title", types.SectionOther},
		{"PROFILE", types.SectionSummary},
		{"TECHNICAL SKILLS", types.SectionSkills},
		{"KEY TECHNOLOGY", types.SectionSkills},
		{"EMPLOYMENT HISTORY", types.SectionExperience},
		{"INTERNSHIP", types.SectionExperience},
		{"ACADEMIC PROJECTS", types.SectionProjects},
		{"CERTIFICATIONS", types.SectionCertifications},
		{"", types.SectionOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.heading), "heading %q", tt.heading)
	}
}
