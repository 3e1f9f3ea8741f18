package matching

import (
	"context"
	"testing"

	"cv-agent-go/internal/types"

	"github.com/stretchr/testify/assert"
)

func stubSemantic(out ...string) (SemanticMatcher, *int) {
	calls := 0
	return SemanticMatcherFunc(func(context.Context, []string, []string) []string {
		calls++
		return out
	}), &calls
}

func TestMatchSkills_DirectAndSemantic(t *testing.T) {
	job := types.JobRequirements{TechnicalSkills: []string{"python", "java"}}
	semantic, calls := stubSemantic("sql")

	res := MatchSkills(context.Background(), []string{"python", "sql"}, job, semantic)

	assert.Equal(t, 1, *calls)
	assert.Equal(t, []string{"python"}, res.DirectMatches)
	assert.Equal(t, []string{"sql"}, res.SemanticMatches)
	assert.Equal(t, []string{"python", "sql"}, res.Matches)
	assert.Equal(t, 100.0, res.MatchPercentage)
	// sql 是简历侧的技能名，不计入岗位技术技能
	assert.Equal(t, 50.0, res.TechMatchPercentage)
	assert.Equal(t, 0.0, res.SoftMatchPercentage)
	assert.InDelta(t, 35.0, res.WeightedMatchPercentage, 1e-9)
}

func TestMatchSkills_EmptyJobSkills(t *testing.T) {
	semantic, calls := stubSemantic("go")

	res := MatchSkills(context.Background(), []string{"go"}, types.JobRequirements{}, semantic)

	assert.Equal(t, 0, *calls, "岗位技能为空时不应调用语义匹配")
	assert.Empty(t, res.Matches)
	assert.Equal(t, 0.0, res.MatchPercentage)
	assert.Equal(t, 0.0, res.TechMatchPercentage)
	assert.Equal(t, 0.0, res.SoftMatchPercentage)
	assert.Equal(t, 0.0, res.WeightedMatchPercentage)
}

func TestMatchSkills_AllDirectSkipsSemantic(t *testing.T) {
	job := types.JobRequirements{
		TechnicalSkills: []string{"go"},
		SoftSkills:      []string{"communication"},
	}
	semantic, calls := stubSemantic("anything")

	res := MatchSkills(context.Background(), []string{"go", "communication"}, job, semantic)

	assert.Equal(t, 0, *calls)
	assert.Equal(t, 100.0, res.MatchPercentage)
	assert.Equal(t, 100.0, res.WeightedMatchPercentage)
}

func TestMatchSkills_SemanticFiltered(t *testing.T) {
	job := types.JobRequirements{TechnicalSkills: []string{"go", "kubernetes"}}
	// 模型返回了直接匹配项、重复项和不在简历里的技能
	semantic, _ := stubSemantic("go", "docker", "docker", "rust")

	res := MatchSkills(context.Background(), []string{"go", "docker"}, job, semantic)

	assert.Equal(t, []string{"go"}, res.DirectMatches)
	assert.Equal(t, []string{"docker"}, res.SemanticMatches)
	assert.Equal(t, 100.0, res.MatchPercentage)
}

func TestMatchSkills_PercentagesBounded(t *testing.T) {
	job := types.JobRequirements{
		TechnicalSkills:   []string{"go"},
		SoftSkills:        []string{"teamwork"},
		IndustryKnowledge: []string{"fintech"},
	}
	tests := []struct {
		name     string
		cv       []string
		semantic []string
	}{
		{"none", nil, nil},
		{"partial", []string{"go"}, nil},
		{"semantic overflow", []string{"go", "a", "b", "c", "d"}, []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			semantic, _ := stubSemantic(tt.semantic...)
			res := MatchSkills(context.Background(), tt.cv, job, semantic)
			for _, v := range []float64{res.MatchPercentage, res.TechMatchPercentage, res.SoftMatchPercentage, res.WeightedMatchPercentage} {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 100.0)
			}
			assert.Len(t, res.Matches, len(res.DirectMatches)+len(res.SemanticMatches))
		})
	}
}

func TestMatchSkillsWeighted_CustomWeights(t *testing.T) {
	job := types.JobRequirements{
		TechnicalSkills: []string{"go"},
		SoftSkills:      []string{"teamwork"},
	}
	res := MatchSkillsWeighted(context.Background(), []string{"teamwork"}, job, nil, Weights{Tech: 0.5, Soft: 0.5})

	assert.Equal(t, 0.0, res.TechMatchPercentage)
	assert.Equal(t, 100.0, res.SoftMatchPercentage)
	assert.Equal(t, 50.0, res.WeightedMatchPercentage)
}

func TestMatchSkills_DuplicateSkillsCountedOnce(t *testing.T) {
	job := types.JobRequirements{TechnicalSkills: []string{"python", "java", "python"}}

	res := MatchSkills(context.Background(), []string{"python", "python"}, job, nil)

	assert.Equal(t, []string{"python"}, res.DirectMatches)
	assert.Equal(t, []string{"python"}, res.Matches)
	assert.Equal(t, 50.0, res.MatchPercentage)
	assert.Equal(t, 50.0, res.TechMatchPercentage)
}

func TestMatchSkills_SkillInBothCVCategories(t *testing.T) {
	job := types.JobRequirements{
		TechnicalSkills: []string{"leadership"},
		SoftSkills:      []string{"teamwork"},
	}
	cv := types.CVSkills{TechnicalSkills: []string{"leadership"}, SoftSkills: []string{"leadership"}}

	res := MatchSkills(context.Background(), cv.All(), job, nil)

	assert.Equal(t, []string{"leadership"}, res.DirectMatches)
	assert.Equal(t, 50.0, res.MatchPercentage)
}

func TestWeightsValid(t *testing.T) {
	assert.True(t, DefaultWeights.Valid())
	assert.True(t, Weights{Tech: 1}.Valid())
	assert.False(t, Weights{Tech: 0.7, Soft: 0.7}.Valid())
	assert.False(t, Weights{Tech: 1.2, Soft: -0.2}.Valid())
}
