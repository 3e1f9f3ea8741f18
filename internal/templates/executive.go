package templates

import "strings"

func renderExecutive(data ResumeData, c Customizations) string {
	d := &doc{}
	d.add(strings.ToUpper(nameOr(data.Contact)))
	if data.Contact.Position != "" {
		d.add(data.Contact.Position)
	}
	d.addf("Ph# %s, email: %s, LinkedIn: %s   Project Repository: %s",
		data.Contact.Phone, data.Contact.Email, data.Contact.LinkedIn, data.Contact.GitHub)
	d.blank()

	if !c.excluded(SectionSummary) {
		summary := data.Summary
		if c.CustomSummary != "" {
			summary = c.CustomSummary
		}
		d.add("Professional Summary", summary)
		d.blank()
	}

	if !c.excluded(SectionSkills) {
		d.add("Core Competencies")
		for _, s := range skillsToShow(data, c) {
			d.add("• " + s)
		}
		d.blank()
	}

	if !c.excluded(SectionExperience) {
		d.add("Professional Experience")
		for _, exp := range data.Experience {
			d.add(exp.Company)
			line := exp.Title
			if dr := dateRange(exp.StartDate, exp.EndDate); dr != "" {
				line += "    " + strings.Replace(dr, " - ", " – ", 1)
			}
			d.add(line)
			for _, a := range exp.Achievements {
				d.add("• " + a)
			}
			d.blank()
		}
	}

	if !c.excluded(SectionProjects) {
		d.add("Projects")
		for _, p := range data.Projects {
			d.addf("• %s: %s", p.Name, p.Description)
		}
		d.blank()
	}

	if !c.excluded(SectionEducation) {
		d.add("Education")
		for _, ed := range data.Education {
			d.add(ed.Degree, ed.Institution)
			if dr := dateRange(ed.StartDate, ed.EndDate); dr != "" {
				d.add(strings.Replace(dr, " - ", " – ", 1))
			}
			d.blank()
		}
	}

	if !c.excluded(SectionCertifications) {
		d.add("Certifications")
		for _, cert := range data.Certifications {
			d.add("• " + cert.Name)
		}
	}
	return d.String()
}
