package letter

// Tone selects the writing style of a letter. Values other than the presets
// are treated as free-form tone descriptions.
type Tone string

const (
	ToneEnthusiastic Tone = "Enthusiastic"
	ToneConfident    Tone = "Confident"
	ToneConcise      Tone = "Concise"
)

const basePrompt = "You are an expert cover letter writer who crafts personalized and effective cover letters. Keep it informal and friendly."

var toneClauses = map[Tone]string{
	ToneEnthusiastic: "Write with enthusiasm and passion that demonstrates excitement for the position.",
	ToneConfident:    "Write with confidence and authority that emphasizes achievements and capabilities.",
	ToneConcise:      "Write a brief but impactful cover letter that gets straight to the point.",
}

// PresetTones lists the built-in tones in display order.
func PresetTones() []Tone {
	return []Tone{ToneEnthusiastic, ToneConfident, ToneConcise}
}

// IsPreset reports whether t is one of the built-in tones.
func (t Tone) IsPreset() bool {
	_, ok := toneClauses[t]
	return ok
}

// SystemPrompt returns the letter-writer system prompt for tone.
func SystemPrompt(tone Tone) string {
	if clause, ok := toneClauses[tone]; ok {
		return basePrompt + " " + clause
	}
	return basePrompt + " Write in a " + string(tone) + " tone that resonates with the employer."
}
