package templates

import (
	"strings"
	"testing"

	"cv-agent-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const optimizedCV = `Jane Doe
jane@x.com

SUMMARY
Backend engineer.

EXPERIENCE
Engineer at Acme
2020 - 2023
- Built systems

SKILLS
Go, SQL`

func TestSplitOptimized_UpperCaseHeaders(t *testing.T) {
	sections := SplitOptimized(optimizedCV)

	require.Len(t, sections, 3)
	assert.Equal(t, OptimizedSection{Name: "SUMMARY", Content: "Backend engineer."}, sections[0])
	assert.Equal(t, OptimizedSection{Name: "EXPERIENCE", Content: "Engineer at Acme\n2020 - 2023\n- Built systems"}, sections[1])
	assert.Equal(t, OptimizedSection{Name: "SKILLS", Content: "Go, SQL", Skills: true}, sections[2])
}

func TestSplitOptimized_CommonSectionNames(t *testing.T) {
	sections := SplitOptimized("Jane Doe\nSummary\nBackend engineer.\nWork Experience\nEngineer at Acme")

	require.Len(t, sections, 2)
	assert.Equal(t, "SUMMARY", sections[0].Name)
	assert.Equal(t, "Backend engineer.", sections[0].Content)
	assert.Equal(t, "EXPERIENCE", sections[1].Name)
	assert.Equal(t, "Engineer at Acme", sections[1].Content)
}

func TestSplitOptimized_SummaryAndRestFallback(t *testing.T) {
	text := "Jane Doe\njane@x.com\nBuilt backend services for a decade.\nLoves Go.\n\nAcme 2020 to now\nShipped things"

	sections := SplitOptimized(text)

	require.Len(t, sections, 2)
	assert.Equal(t, OptimizedSection{Name: "SUMMARY", Content: "Built backend services for a decade.\nLoves Go."}, sections[0])
	assert.Equal(t, OptimizedSection{Name: "EXPERIENCE", Content: "Acme 2020 to now\nShipped things"}, sections[1])
}

func TestSplitOptimized_SkillsAliasAndRepeats(t *testing.T) {
	text := "TECHNICAL EXPERTISE\n- Go\n- Kubernetes\nEXPERIENCE\nEngineer at Acme\nEXPERIENCE\nIntern at Beta"

	sections := SplitOptimized(text)

	require.Len(t, sections, 2)
	assert.Equal(t, "TECHNICAL EXPERTISE", sections[0].Name)
	assert.True(t, sections[0].Skills)
	assert.Equal(t, "Engineer at Acme\nIntern at Beta", sections[1].Content, "a repeated header appends")
	assert.False(t, sections[1].Skills)
}

func TestSplitOptimized_Empty(t *testing.T) {
	assert.Nil(t, SplitOptimized("  \n "))
}

func TestRenderOptimized(t *testing.T) {
	contact := types.PersonalInfo{Name: "Jane Doe", Email: "jane@x.com", Phone: "555-0100"}
	sections := SplitOptimized(optimizedCV)

	modern := RenderOptimized(Modern, contact, []string{"Python", "Docker"}, sections)
	assert.True(t, strings.HasPrefix(modern, "Jane Doe\njane@x.com | 555-0100\n\nSUMMARY\nBackend engineer.\n"))
	assert.Contains(t, modern, "EXPERIENCE\nEngineer at Acme\n2020 - 2023\n- Built systems")
	assert.Contains(t, modern, "SKILLS\nPython • Docker")

	professional := RenderOptimized(Professional, contact, nil, sections)
	assert.Contains(t, professional, "Email: jane@x.com")
	assert.Contains(t, professional, "SUMMARY\n-------\nBackend engineer.")
	assert.Contains(t, professional, "SKILLS\n------\nGo • SQL", "skills come from the section when none are given")

	technical := RenderOptimized(Technical, contact, []string{"Go", "Redis", "Negotiation"}, sections)
	assert.Contains(t, technical, "Programming Languages: Go\nDatabases: Redis\nOther: Negotiation")

	executive := RenderOptimized("", contact, nil, sections)
	assert.True(t, strings.HasPrefix(executive, "JANE DOE\n\nSUMMARY\n"))
}
