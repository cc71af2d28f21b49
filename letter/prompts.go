package letter

import _ "embed"

//go:embed prompts/draft.tmpl
var draftTemplate string

//go:embed prompts/improve.tmpl
var improveTemplate string

//go:embed prompts/revise.tmpl
var reviseTemplate string

//go:embed prompts/skills.tmpl
var skillsTemplate string

//go:embed prompts/gaps.tmpl
var gapsTemplate string

const (
	skillsSystemPrompt = "You are an experienced career coach who reads resumes and lists the candidate's skills precisely."
	gapsSystemPrompt   = "You are an experienced career coach who reviews cover letters against a candidate's skills."
)

// noMissingSkillsPlaceholder fills the missing-skills block when there are none.
const noMissingSkillsPlaceholder = "No missing skills"
