package parser

import (
	"testing"

	"cv-agent-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCV = `Jane Doe
jane@x.com
EXPERIENCE
Engineer at Acme
Jan 2020 - Present
• Built systems
Analyst | Initech
2017 - 2019
• Automated reports
EDUCATION
BSc in Physics, MIT
2013 - 2017
SKILLS
Go, SQL`

func TestParseResume_MinimalCV(t *testing.T) {
	cv := "Jane Doe\njane@x.com\nEXPERIENCE\nEngineer at Acme\nJan 2020 - Present\n• Built systems"

	profile := ParseResume(cv, nil)

	assert.Equal(t, "Jane Doe", profile.Personal.Name)
	assert.Equal(t, "jane@x.com", profile.Personal.Email)
	require.Len(t, profile.WorkExperience, 1)
	exp := profile.WorkExperience[0]
	assert.Equal(t, "Engineer", exp.Title)
	assert.Equal(t, "Acme", exp.Company)
	assert.Equal(t, "Jan 2020", exp.StartDate)
	assert.Equal(t, "Present", exp.EndDate)
	assert.Equal(t, []string{"Built systems"}, exp.Achievements)
}

func TestParseResume_MultipleSections(t *testing.T) {
	profile := ParseResume(sampleCV, nil)

	require.Len(t, profile.WorkExperience, 2)
	assert.Equal(t, "Analyst", profile.WorkExperience[1].Title)
	assert.Equal(t, "Initech", profile.WorkExperience[1].Company)
	assert.Equal(t, "2017", profile.WorkExperience[1].StartDate)
	assert.Equal(t, "2019", profile.WorkExperience[1].EndDate)

	require.Len(t, profile.Education, 1)
	assert.Equal(t, "BSc", profile.Education[0].Degree)
	assert.Equal(t, "Physics", profile.Education[0].Field)
	assert.Equal(t, "MIT", profile.Education[0].Institution)

	assert.Equal(t, []string{"go", "sql"}, profile.NormalizedSkills())
}

func TestParseResume_EntriesKeepIdentifyingField(t *testing.T) {
	inputs := []string{
		sampleCV,
		"EXPERIENCE\n\n\n• orphan bullet\n\nEDUCATION\nGPA: 3.2\n\nHonors award",
		"Work Experience\nLead Dev - Hooli\nMar 2019 to Jun 2021\n- Scaled the team\nConsultant\n2015 - 2018",
	}
	for _, in := range inputs {
		profile := ParseResume(in, nil)
		for _, e := range profile.WorkExperience {
			assert.True(t, e.Title != "" || e.Company != "", "experience entry without title or company: %+v", e)
		}
		for _, e := range profile.Education {
			assert.True(t, e.Degree != "" || e.Institution != "", "education entry without degree or institution: %+v", e)
		}
	}
}

func TestParseResume_HyperlinksOverrideTextMatches(t *testing.T) {
	cv := "Jane Doe\nlinkedin.com/in/old-handle\nSUMMARY\nBackend engineer"
	links := []string{
		"https://www.linkedin.com/in/jane",
		"https://github.com/jane",
		"https://jane.dev/about",
	}

	profile := ParseResume(cv, links)

	assert.Equal(t, "https://www.linkedin.com/in/jane", profile.Personal.LinkedIn)
	assert.Equal(t, "https://github.com/jane", profile.Personal.GitHub)
	assert.Equal(t, "https://jane.dev/about", profile.Personal.Website)
	assert.Equal(t, "Backend engineer", profile.Summary)
}

func TestSegmentSections_Deterministic(t *testing.T) {
	first := SegmentSections(sampleCV)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, SegmentSections(sampleCV))
	}
}

func TestSegmentSections_AppendsRecurringSection(t *testing.T) {
	text := "John Smith\nSUMMARY\nBuilt things.\nSKILLS\nGo, Python\nSUMMARY\nMore text"

	sections := SegmentSections(text)

	require.Equal(t, 2, sections.Len())
	assert.Equal(t, "Built things.\nMore text", sections.Get(types.SectionSummary))
	assert.Equal(t, "Go, Python", sections.Get(types.SectionSkills))
	assert.Equal(t, types.SectionSummary, sections.List()[0].Type)
}

func TestSegmentSections_DiscardsPreamble(t *testing.T) {
	sections := SegmentSections("Jane Doe\nSome intro line\nSkills\nGo")
	assert.Equal(t, 1, sections.Len())
	assert.Equal(t, "Go", sections.Get(types.SectionSkills))
}

func TestDetectHeader(t *testing.T) {
	tests := []struct {
		line    string
		want    types.SectionType
		isTitle bool
	}{
		{"Professional Experience", types.SectionExperience, true},
		{"WORK HISTORY", types.SectionExperience, true},
		{"Education", types.SectionEducation, true},
		{"Technical Skills", types.SectionSkills, true},
		{"Key Projects", types.SectionProjects, true},
		{"languages", types.SectionLanguages, true},
		{"Skills & Tools", types.SectionSkills, true},
		{"my skills", "", false},
		{"Led the experience team for five years", "", false},
		{"Engineer at Acme", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := detectHeader(tt.line)
			assert.Equal(t, tt.isTitle, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"blank line closes entry", "A\n\nB", 2},
		{"title then date stays together", "Engineer at Acme\nJan 2020 - Present\n• Built systems", 1},
		{"separator after bullets", "Engineer at Acme\nJan 2020 - Present\n• Built systems\nDeveloper at Foo\nMar 2018 - Dec 2019\n• Shipped", 2},
		{"header after bullets", "Acme Corp\n• did x\nBeta Inc\n• did y", 2},
		{"second date opens entry", "Acme\nJan 2020 - Present\nInitech\nFeb 2018 - Dec 2019", 2},
		{"single line", "Just one line", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, SplitEntries(tt.content), tt.want)
		})
	}
}

func TestExtractExperience(t *testing.T) {
	exp := ExtractExperience("Senior Engineer - Globex\n2018 - 2020\nResponsible for the payments platform rewrite\n- Cut latency by 40%")

	assert.Equal(t, "Senior Engineer", exp.Title)
	assert.Equal(t, "Globex", exp.Company)
	assert.Equal(t, "2018", exp.StartDate)
	assert.Equal(t, "2020", exp.EndDate)
	assert.Equal(t, []string{"Responsible for the payments platform rewrite"}, exp.Description)
	assert.Equal(t, []string{"Cut latency by 40%"}, exp.Achievements)
}

func TestExtractExperience_SingleDateIsEndDate(t *testing.T) {
	exp := ExtractExperience("Engineer at Acme\nJan 2021")
	assert.Empty(t, exp.StartDate)
	assert.Equal(t, "Jan 2021", exp.EndDate)
}

func TestExtractEducation(t *testing.T) {
	ed := ExtractEducation("Master of Science in Computer Science, Stanford University\n2016 - 2018\nGPA: 3.9\n• Dean's list")

	assert.Equal(t, "Master", ed.Degree)
	assert.Equal(t, "Science in Computer Science", ed.Field)
	assert.Equal(t, "Stanford University", ed.Institution)
	assert.Equal(t, "2016", ed.StartDate)
	assert.Equal(t, "2018", ed.EndDate)
	assert.Equal(t, "3.9", ed.GPA)
	assert.Equal(t, []string{"Dean's list"}, ed.Achievements)
}

func TestExtractEducation_FirstLineFallbacks(t *testing.T) {
	tests := []struct {
		line            string
		wantDegree      string
		wantInstitution string
	}{
		{"Harvard University", "", "Harvard University"},
		{"University of Toronto", "", "University of Toronto"},
		{"Diploma in Design", "Diploma in Design", ""},
		{"B.S. in Biology - UCLA", "B.S.", "UCLA"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ed := ExtractEducation(tt.line)
			assert.Equal(t, tt.wantDegree, ed.Degree)
			assert.Equal(t, tt.wantInstitution, ed.Institution)
		})
	}
}

func TestParseSkills(t *testing.T) {
	skills := ParseSkills("Programming Languages:\nGo (Expert), Python\n• Docker\nKubernetes\nSoft Skills\nLeadership, Communication")

	require.Len(t, skills, 5)
	assert.Equal(t, types.Skill{Name: "Go", Category: "Programming Languages", Proficiency: "Expert"}, skills[0])
	assert.Equal(t, "Docker", skills[1].Name)
	assert.Equal(t, "Kubernetes", skills[2].Name)
	assert.Equal(t, types.Skill{Name: "Leadership", Category: "Soft Skills"}, skills[3])
	assert.Equal(t, "Communication", skills[4].Name)
}

func TestParseSkills_DefaultCategory(t *testing.T) {
	skills := ParseSkills("SQL")
	require.Len(t, skills, 1)
	assert.Equal(t, defaultSkillCategory, skills[0].Category)
}

func TestParseLanguages(t *testing.T) {
	langs := ParseLanguages("English (Native)\nSpanish - Intermediate\nGerman: B2\n• French")

	assert.Equal(t, []types.Language{
		{Name: "English", Proficiency: "Native"},
		{Name: "Spanish", Proficiency: "Intermediate"},
		{Name: "German", Proficiency: "B2"},
		{Name: "French"},
	}, langs)
}

func TestParseCertifications(t *testing.T) {
	certs := ParseCertifications("AWS Certified Solutions Architect\nIssued by Amazon Web Services\nMar 2021\nExpires Mar 2024\nCovers cloud architecture")

	require.Len(t, certs, 1)
	assert.Equal(t, types.Certification{
		Name:        "AWS Certified Solutions Architect",
		Issuer:      "Amazon Web Services",
		Date:        "Mar 2021",
		Expiration:  "Mar 2024",
		Description: "Covers cloud architecture",
	}, certs[0])
}

func TestParseProjects(t *testing.T) {
	projects := ParseProjects("Inventory Tracker\nJun 2022\nA tool for tracking stock levels\nTech stack: Go, Redis, PostgreSQL\nRole: Lead developer\n- Reduced stockouts by 30%")

	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, "Inventory Tracker", p.Name)
	assert.Equal(t, "Jun 2022", p.Date)
	assert.Equal(t, "A tool for tracking stock levels", p.Description)
	assert.Equal(t, []string{"Go", "Redis", "PostgreSQL"}, p.Technologies)
	assert.Equal(t, "Lead developer", p.Role)
	assert.Equal(t, []string{"Reduced stockouts by 30%"}, p.Achievements)
}

func TestExtractPersonalInfo(t *testing.T) {
	text := "Jane Q. Doe\nSenior Data Analyst\nAustin, TX | (512) 555-1234 | jane.doe@mail.co\nlinkedin.com/in/janedoe | janedoe.dev"

	info := ExtractPersonalInfo(text)

	assert.Equal(t, "Jane Q. Doe", info.Name)
	assert.Equal(t, "Senior Data Analyst", info.Position)
	assert.Equal(t, "Austin, TX", info.Location)
	assert.Equal(t, "(512) 555-1234", info.Phone)
	assert.Equal(t, "jane.doe@mail.co", info.Email)
	assert.Equal(t, "linkedin.com/in/janedoe", info.LinkedIn)
	assert.Equal(t, "janedoe.dev", info.Website)
}

func TestExtractPersonalInfo_PhoneInsideLongNumberIgnored(t *testing.T) {
	info := ExtractPersonalInfo("John Smith\nAccount 9995551234567")
	assert.Empty(t, info.Phone)

	info = ExtractPersonalInfo("John Smith\nOrder 12345678901234\nCall +1 555-123-4567")
	assert.Equal(t, "+1 555-123-4567", info.Phone)
}

func TestExtractPersonalInfo_EmptyText(t *testing.T) {
	assert.Equal(t, types.PersonalInfo{}, ExtractPersonalInfo(""))
}

func TestApplyHyperlinks_ShortGitHubLinkIgnored(t *testing.T) {
	info := ApplyHyperlinks(types.PersonalInfo{GitHub: "keep"}, []string{"github.com/jane"})
	assert.Equal(t, "keep", info.GitHub)
}
