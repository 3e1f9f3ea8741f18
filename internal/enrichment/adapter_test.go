package enrichment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-agent-go/internal/types"
)

func newTestAdapter(m model.ToolCallingChatModel) *Adapter {
	return NewAdapter(m, WithLogger(zerolog.Nop()), WithRetryPolicy(time.Millisecond, 2))
}

func TestClassifyIndustryFallbackOnNonJSON(t *testing.T) {
	a := newTestAdapter(NewMockChatModel("I think this is a tech job."))

	res := a.ClassifyIndustry(context.Background(), "We need a Go developer")

	assert.True(t, res.Degraded, "非 JSON 输出应降级")
	assert.Equal(t, "General", res.Value.Industry)
	assert.NotNil(t, res.Value.DomainKeywords)
	assert.Empty(t, res.Value.DomainKeywords)
}

func TestClassifyIndustryFencedJSON(t *testing.T) {
	a := newTestAdapter(NewMockChatModel("Sure!\n```json\n{\"industry\": \" Technology \", \"domain_keywords\": [\"Cloud\", \" \"]}\n```"))

	res := a.ClassifyIndustry(context.Background(), "jd")

	require.False(t, res.Degraded)
	assert.Equal(t, "Technology", res.Value.Industry)
	assert.Equal(t, []string{"Cloud"}, res.Value.DomainKeywords)
}

func TestExtractSkillsLowercased(t *testing.T) {
	a := newTestAdapter(NewMockChatModel(
		`{"technical_skills": [" Python", "SQL "], "soft_skills": ["Leadership"]}`,
		`{"technical_skills": ["Java"], "soft_skills": ["Communication"], "experience": ["3+ Years"], "education": [], "industry_knowledge": ["FinTech"]}`,
	))

	cv := a.ExtractCVSkills(context.Background(), "cv", "Technology")
	require.False(t, cv.Degraded)
	assert.Equal(t, []string{"python", "sql"}, cv.Value.TechnicalSkills)
	assert.Equal(t, []string{"leadership"}, cv.Value.SoftSkills)

	job := a.ExtractJobRequirements(context.Background(), "jd", "Technology")
	require.False(t, job.Degraded)
	assert.Equal(t, []string{"java", "communication", "fintech"}, job.Value.JobSkills())
	assert.Equal(t, []string{"3+ years"}, job.Value.Experience)
}

func TestExtractSkillsDeduplicated(t *testing.T) {
	a := newTestAdapter(NewMockChatModel(
		`{"technical_skills": ["Python", "python ", "SQL"], "soft_skills": ["Teamwork", "teamwork"]}`,
		`{"technical_skills": ["Go", "GO"], "soft_skills": [], "industry_knowledge": ["Cloud", "cloud"]}`,
	))

	cv := a.ExtractCVSkills(context.Background(), "cv", "Technology")
	require.False(t, cv.Degraded)
	assert.Equal(t, []string{"python", "sql"}, cv.Value.TechnicalSkills)
	assert.Equal(t, []string{"teamwork"}, cv.Value.SoftSkills)

	job := a.ExtractJobRequirements(context.Background(), "jd", "Technology")
	require.False(t, job.Degraded)
	assert.Equal(t, []string{"go", "cloud"}, job.Value.JobSkills())
}

func TestExtractJobRequirementsFallback(t *testing.T) {
	a := newTestAdapter(&MockChatModel{Responses: []MockResponse{{Error: errors.New("invalid api key")}}})

	res := a.ExtractJobRequirements(context.Background(), "jd", "")
	assert.True(t, res.Degraded)
	assert.Equal(t, FallbackJobRequirements(), res.Value)
	assert.Empty(t, res.Value.JobSkills())
}

func TestFindSemanticMatchesArray(t *testing.T) {
	a := newTestAdapter(NewMockChatModel(`[{"cv_skill": "SQL", "job_skill": "Java"}, {"cv_skill": "", "job_skill": "x"}]`))

	res := a.FindSemanticMatches(context.Background(), []string{"sql"}, []string{"java"})
	require.False(t, res.Degraded)
	assert.Equal(t, []types.SemanticMatch{{CVSkill: "sql", JobSkill: "java"}}, res.Value)
}

func TestScoreATSClampsAndFallback(t *testing.T) {
	a := newTestAdapter(NewMockChatModel(`{"ats_score": 140, "structure_analysis": {"score": -5, "issues": [], "recommendations": []}}`))
	res := a.ScoreATS(context.Background(), ATSInput{CVText: "cv", JobText: "jd"})
	require.False(t, res.Degraded)
	assert.Equal(t, 100.0, res.Value.ATSScore)
	assert.Equal(t, 0.0, res.Value.StructureAnalysis.Score)

	a = newTestAdapter(NewMockChatModel("not json"))
	res = a.ScoreATS(context.Background(), ATSInput{})
	assert.True(t, res.Degraded)
	assert.Equal(t, 50.0, res.Value.ATSScore)
	assert.Equal(t, []string{"Unclear formatting"}, res.Value.StructureAnalysis.Issues)
	assert.Equal(t, []string{"Use clear headers"}, res.Value.StructureAnalysis.Recommendations)
	assert.Equal(t, []string{"email"}, res.Value.Completeness.MissingElements)
	assert.Equal(t, []string{"Generic terms"}, res.Value.IndustryFit.Weaknesses)
	assert.Equal(t, []string{"Add measurable results"}, res.Value.MetricsAnalysis.Recommendations)
}

func TestScoreCompetitiveFallback(t *testing.T) {
	a := newTestAdapter(NewMockChatModel("{broken"))
	res := a.ScoreCompetitive(context.Background(), CompetitiveInput{})

	assert.True(t, res.Degraded)
	assert.Equal(t, 50.0, res.Value.CompetitiveScore)
	assert.Equal(t, "average", res.Value.Standing)
	assert.Equal(t, []string{"Advanced skills lacking"}, res.Value.SkillDepth.Gaps)
	assert.Equal(t, []string{"Tailor experience"}, res.Value.ExperienceRelevance.Recommendations)
	assert.Equal(t, []string{"Highlight unique achievements"}, res.Value.OverallRecommendations)
}

func TestRetryOnlyTransientErrors(t *testing.T) {
	m := &MockChatModel{Responses: []MockResponse{
		{Error: errors.New("read tcp: connection reset by peer")},
		{Content: `{"industry": "Healthcare", "domain_keywords": []}`},
	}}
	res := newTestAdapter(m).ClassifyIndustry(context.Background(), "jd")
	assert.False(t, res.Degraded)
	assert.Equal(t, "Healthcare", res.Value.Industry)
	assert.Equal(t, 2, m.Calls(), "临时错误应当重试一次")

	m = &MockChatModel{Responses: []MockResponse{{Error: errors.New("400 bad request")}}}
	res = newTestAdapter(m).ClassifyIndustry(context.Background(), "jd")
	assert.True(t, res.Degraded)
	assert.Equal(t, 1, m.Calls(), "非临时错误不应重试")

	m = &MockChatModel{Responses: []MockResponse{{Error: errors.New("429 rate limit")}}}
	newTestAdapter(m).ClassifyIndustry(context.Background(), "jd")
	assert.Equal(t, 3, m.Calls(), "最多重试两次")
}

type slowModel struct{ MockChatModel }

func (s *slowModel) Generate(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCallTimeoutDegrades(t *testing.T) {
	a := NewAdapter(&slowModel{}, WithLogger(zerolog.Nop()), WithCallTimeout(5*time.Millisecond), WithRetryPolicy(time.Millisecond, 1))

	start := time.Now()
	res := a.GenerateCoverLetter(context.Background(), "cv", "jd")
	assert.True(t, res.Degraded)
	assert.Equal(t, "", res.Value)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNilModelDegrades(t *testing.T) {
	a := NewAdapter(nil, WithLogger(zerolog.Nop()))
	res := a.EditSection(context.Background(), "summary", "original", "")
	assert.True(t, res.Degraded)
	assert.Equal(t, "original", res.Value)
}

func TestOptimizeCV(t *testing.T) {
	a := newTestAdapter(NewMockChatModel("```html\n<h1>Jane Doe</h1><p>Go engineer</p>\n```"))
	res := a.OptimizeCV(context.Background(), "cv", "jd")
	require.False(t, res.Degraded)
	assert.Contains(t, res.Value, "# Jane Doe")
	assert.Contains(t, res.Value, "Go engineer")
	assert.NotContains(t, res.Value, "<p>")

	a = newTestAdapter(NewMockChatModel("```markdown\n## Summary\nBuilt things\n```"))
	res = a.OptimizeCV(context.Background(), "cv", "jd")
	assert.Equal(t, "## Summary\nBuilt things", res.Value)

	a = newTestAdapter(&MockChatModel{Responses: []MockResponse{{Error: errors.New("boom")}}})
	res = a.OptimizeCV(context.Background(), "original cv", "jd")
	assert.True(t, res.Degraded)
	assert.Equal(t, "original cv", res.Value)
}

func TestEnhanceSkillsUnion(t *testing.T) {
	a := newTestAdapter(NewMockChatModel(`{"enhanced_skills": ["PostgreSQL", "python", "Data Analysis"]}`))
	res := a.EnhanceSkills(context.Background(), []string{"Python", "SQL", "python"})
	require.False(t, res.Degraded)
	assert.Equal(t, []string{"python", "sql", "postgresql", "data analysis"}, res.Value)

	a = newTestAdapter(NewMockChatModel("nope"))
	res = a.EnhanceSkills(context.Background(), []string{"Go"})
	assert.True(t, res.Degraded)
	assert.Equal(t, []string{"go"}, res.Value)
}

func TestEditSectionUsesDefaultGoal(t *testing.T) {
	m := NewMockChatModel("  Improved summary  ")
	res := newTestAdapter(m).EditSection(context.Background(), "summary", "I code.", "")

	require.False(t, res.Degraded)
	assert.Equal(t, "Improved summary", res.Value)
	received := m.Received()
	require.Len(t, received, 1)
	user := received[0][len(received[0])-1].Content
	assert.Contains(t, user, "Goal: "+DefaultEditGoal)
	assert.True(t, strings.HasPrefix(user, "Improve the following summary content."))
}
