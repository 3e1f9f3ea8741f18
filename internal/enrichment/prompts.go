package enrichment

import (
	"encoding/json"
	"fmt"

	"cv-agent-go/internal/types"
)

const (
	systemJSONAnalyst = "You are an expert recruiter and career analyst. Respond only with valid JSON that follows the requested format, without explanations."
	systemWriter      = "You are an expert resume writer and career coach."
	systemEditor      = "You are a resume assistant. Improve resume content so it is concise, impactful, and ATS-optimized."
)

// listLiteral 把字符串列表格式化为 JSON 数组文本，放进提示词
func listLiteral(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func industryPrompt(jobText string) string {
	return fmt.Sprintf(`Analyze the following job description and identify the industry/sector it belongs to.
Also identify any specialized domain knowledge that might be required.

Job Description: %s

Return your answer as a JSON with two fields:
- "industry": The primary industry (e.g., "Technology", "Healthcare")
- "domain_keywords": List of 5-10 specialized domain-specific keywords`, jobText)
}

func cvSkillsPrompt(cvText, industry string) string {
	return fmt.Sprintf(`Extract skills from the CV for a position in the %s industry.
Include technical skills (e.g., Python, SQL) and soft skills (e.g., leadership).

CV Text: %s

Return as JSON:
{
    "technical_skills": ["skill1", "skill2"],
    "soft_skills": ["skill1", "skill2"]
}`, industry, cvText)
}

func jobRequirementsPrompt(jobText, industry string) string {
	scope := ""
	if industry != "" {
		scope = fmt.Sprintf(" for the %s industry", industry)
	}
	return fmt.Sprintf(`Extract requirements from the job description%s.

Job Description: %s

Return as JSON:
{
    "technical_skills": ["skill1", "skill2"],
    "soft_skills": ["skill1", "skill2"],
    "experience": ["req1", "req2"],
    "education": ["req1", "req2"],
    "industry_knowledge": ["req1", "req2"]
}`, scope, jobText)
}

func semanticMatchPrompt(cvSkills, jobSkills []string) string {
	return fmt.Sprintf(`Identify semantic matches between CV skills: %s and job skills: %s.
Return as JSON: [{"cv_skill": "skill", "job_skill": "skill"}]`, listLiteral(cvSkills), listLiteral(jobSkills))
}

// ATSInput ATS 评分需要的上下文
type ATSInput struct {
	CVText       string
	JobText      string
	Industry     string
	Matches      []string
	JobTechnical []string
	JobSoft      []string
}

func atsPrompt(in ATSInput) string {
	return fmt.Sprintf(`Perform a comprehensive ATS (Applicant Tracking System) analysis for this CV targeting a position in the %[1]s industry.

CV Text: %[2]s
Job Description: %[3]s
Matched Skills: %[4]s
Job Technical Skills: %[5]s
Job Soft Skills: %[6]s

Analyze the following aspects:
1. **Structure and Formatting**: Are sections clearly defined with headers? Is the format ATS-friendly?
2. **Keyword Optimization**: How well do CV keywords align with the job description?
3. **Completeness**: Are critical elements present (e.g., contact info, dates)?
4. **Industry-Specific Fit**: Does the CV use %[1]s-specific terminology?
5. **Quantifiable Metrics**: Are achievements specific and measurable?

Provide a detailed JSON response:
{
    "ats_score": number (0-100),
    "structure_analysis": {"score": 0-100, "issues": ["issue1"], "recommendations": ["rec1"]},
    "keyword_optimization": {"score": 0-100, "present_keywords": ["kw1"], "missing_keywords": ["kw2"], "recommendations": ["rec1"]},
    "completeness": {"score": 0-100, "missing_elements": ["elem1"], "recommendations": ["rec1"]},
    "industry_fit": {"score": 0-100, "strengths": ["strength1"], "weaknesses": ["weakness1"], "recommendations": ["rec1"]},
    "metrics_analysis": {"score": 0-100, "examples": ["example1"], "recommendations": ["rec1"]}
}`, in.Industry, in.CVText, in.JobText, listLiteral(in.Matches), listLiteral(in.JobTechnical), listLiteral(in.JobSoft))
}

// CompetitiveInput 竞争力评估需要的上下文
type CompetitiveInput struct {
	CVText       string
	JobText      string
	Industry     string
	CVSkills     types.CVSkills
	Requirements types.JobRequirements
	Matches      []string
}

func competitivePrompt(in CompetitiveInput) string {
	return fmt.Sprintf(`Analyze how this CV positions the candidate competitively for a role in the %[1]s industry.

CV Text: %[2]s
Job Description: %[3]s
Industry: %[1]s
CV Technical Skills: %[4]s
CV Soft Skills: %[5]s
Job Technical Skills: %[6]s
Job Soft Skills: %[7]s
Job Experience Requirements: %[8]s
Job Education Requirements: %[9]s
Job Industry Knowledge: %[10]s
Matched Skills: %[11]s

Evaluate:
1. **Skill Depth**: Do skills show advanced proficiency?
2. **Experience Relevance**: How well does experience align with job requirements?
3. **Certifications/Credentials**: Are industry-standard certifications present?
4. **Unique Selling Points**: What makes the candidate stand out?
5. **Competitive Standing**: Rate as "below average", "average", "above average", or "exceptional".

Provide a detailed JSON response:
{
    "competitive_score": number (0-100),
    "skill_depth": {"score": 0-100, "strengths": ["strength1"], "gaps": ["gap1"], "recommendations": ["rec1"]},
    "experience_relevance": {"score": 0-100, "alignment": ["align1"], "misalignments": ["misalign1"], "recommendations": ["rec1"]},
    "certifications": {"score": 0-100, "present": ["cert1"], "missing": ["cert2"], "recommendations": ["rec1"]},
    "unique_selling_points": ["usp1"],
    "standing": "below average" | "average" | "above average" | "exceptional",
    "overall_recommendations": ["rec1"]
}`,
		in.Industry, in.CVText, in.JobText,
		listLiteral(in.CVSkills.TechnicalSkills), listLiteral(in.CVSkills.SoftSkills),
		listLiteral(in.Requirements.TechnicalSkills), listLiteral(in.Requirements.SoftSkills),
		listLiteral(in.Requirements.Experience), listLiteral(in.Requirements.Education),
		listLiteral(in.Requirements.IndustryKnowledge), listLiteral(in.Matches))
}

func optimizePrompt(cvText, jobText string) string {
	return fmt.Sprintf(`Optimize this CV for the job:
CV Text: %s
Job Description: %s
Return as markdown.`, cvText, jobText)
}

func coverLetterPrompt(cvText, jobText string) string {
	return fmt.Sprintf(`Generate a cover letter:
CV Text: %s
Job Description: %s`, cvText, jobText)
}

func enhanceSkillsPrompt(skills []string) string {
	return fmt.Sprintf(`Given the following CV skills:

%s

Return a list of semantically related or synonymous skills that should be included for better job matching.

Format:
{
    "enhanced_skills": ["skill1", "skill2", ...]
}`, listLiteral(skills))
}

func editSectionPrompt(section, content, goal string) string {
	return fmt.Sprintf(`Improve the following %s content.
Make it concise, impactful, and ATS-optimized.

Content:
%s

Goal: %s`, section, content, goal)
}
