package llm

import "cloud.google.com/go/vertexai/genai"

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func integer(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeInteger, Description: desc}
}

func object(required []string, props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func array(items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items}
}

// resumeSchema mirrors extractedResume.
var resumeSchema = object(
	[]string{"name", "email", "skills", "education", "experience", "achievements"},
	map[string]*genai.Schema{
		"name":    str("Full name of the candidate"),
		"email":   str("Primary e-mail address"),
		"phone":   str("Phone number, empty if absent"),
		"address": str("Postal address or city, empty if absent"),
		"skills": array(object([]string{"name", "level", "category"}, map[string]*genai.Schema{
			"name":     str("A specific skill, e.g. Go, PostgreSQL, Kubernetes"),
			"level":    integer("Proficiency from 1 to 10 based on evidenced work history"),
			"category": {Type: genai.TypeString, Enum: []string{"HARD", "SOFT"}},
		})),
		"education": array(object([]string{"institution", "degree"}, map[string]*genai.Schema{
			"institution":  str("School or university"),
			"degree":       str("Degree obtained"),
			"fieldOfStudy": str("Field of study"),
			"startDate":    str("YYYY-MM-DD, 'Month YYYY' or empty"),
			"endDate":      str("YYYY-MM-DD, 'Month YYYY', 'Present' or empty"),
		})),
		"experience": array(object([]string{"company", "title"}, map[string]*genai.Schema{
			"company":     str("Employer"),
			"title":       str("Job title"),
			"description": str("Responsibilities and results"),
			"startDate":   str("YYYY-MM-DD, 'Month YYYY' or empty"),
			"endDate":     str("YYYY-MM-DD, 'Month YYYY', 'Present' or empty"),
			"current":     {Type: genai.TypeBoolean},
		})),
		"achievements": array(object([]string{"title"}, map[string]*genai.Schema{
			"title":       str("Award, certification or notable result"),
			"description": str("Details"),
			"date":        str("YYYY-MM-DD, 'Month YYYY' or empty"),
		})),
	},
)

// matchSchema mirrors matchAnswer.
var matchSchema = object(
	[]string{"score", "seniorityMatch", "skillMatches", "reasoning", "recommendations"},
	map[string]*genai.Schema{
		"score":          integer("Overall match from 0 to 100"),
		"seniorityMatch": integer("Seniority fit from 0 to 100"),
		"skillMatches": array(object([]string{"skill", "requiredLevel", "candidateLevel", "match"}, map[string]*genai.Schema{
			"skill":          str("Required skill name"),
			"requiredLevel":  integer("Weight of the skill for the job, 1 to 10"),
			"candidateLevel": integer("Candidate proficiency, 0 if missing"),
			"match":          {Type: genai.TypeString, Enum: []string{"EXCEEDS", "MEETS", "PARTIAL", "MISSING"}},
		})),
		"reasoning":       str("First person explanation addressed to the candidate"),
		"recommendations": array(str("A concrete step the candidate could take")),
	},
)
