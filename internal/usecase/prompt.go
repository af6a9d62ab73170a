package usecase

// systemInstruction frames the model as a footage logger. The Log-profile
// note matters: ungraded camera originals look washed out and models
// otherwise fixate on that.
const systemInstruction = `You are a professional cinematic video editor generating metadata for footage management.
You will view a series of frames from a single continuous video shot.
IMPORTANT: The footage may be in a flat Log color profile. Ignore low contrast or "washed out" looks. Focus on content, composition, and action.
Be specific, cinematic, and editor-focused in your descriptions.`

// buildPrompt is the per-clip user message. The field list keeps providers
// without schema enforcement on the same JSON shape.
func buildPrompt(clipName string) string {
	return "Analyze these frames from video file: " + clipName + ".\n" +
		"Respond with a single JSON object with these fields: " +
		`"short_desc" (one sentence, max 100 chars), "long_desc" (detailed paragraph), ` +
		`"subjects" (array), "actions" (array), "camera" (string), "lighting" (string), ` +
		`"setting" (string), "emotion" (string), "keywords" (array of searchable keywords).`
}
