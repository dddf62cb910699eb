package studio

import (
	"fmt"
	"strings"
)

const (
	systemIdeas = `You are a short-form video producer. Reply with JSON only:
{"ideas":[{"title":"...","hook":"...","outline":"..."}]}
Titles are punchy, hooks fit in the first three seconds, outlines cover the full runtime.`

	systemScript = `You are a short-form video scriptwriter. Reply with JSON only:
{"title":"...","hook":"...","scenes":[{"narration":"...","visual":"...","duration_seconds":0}],"call_to_action":"..."}
Scene durations must sum to the requested runtime.`

	systemAssessment = `You are a short-form video editor reviewing a cut. Reply with JSON only:
{"score":0,"strengths":["..."],"weaknesses":["..."],"suggestions":["..."]}
Score is 1-10. Be specific and actionable.`

	systemPlan = `You are a short-form video editor planning an assembly. Reply with JSON only:
{"steps":[{"order":1,"asset":"...","action":"...","duration_seconds":0,"notes":"..."}]}
Use only the listed assets. Actions are cut, overlay, caption, transition, or audio.`
)

func ideaPrompt(req IdeaRequest) string {
	return fmt.Sprintf("Pitch %d distinct short-video ideas about: %s", req.Count, req.Topic)
}

func scriptPrompt(req ScriptRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %d second short-video script for this idea: %s", req.DurationSeconds, req.Idea)
	if tone := strings.TrimSpace(req.Tone); tone != "" {
		fmt.Fprintf(&b, "\nTone: %s", tone)
	}
	return b.String()
}

func imagePrompt(req ImageRequest) string {
	prompt := strings.TrimSpace(req.Prompt)
	if style := strings.TrimSpace(req.Style); style != "" {
		prompt = fmt.Sprintf("%s\nStyle: %s", prompt, style)
	}
	return prompt
}

func assessmentPrompt(req AssessmentRequest) string {
	return "Assess this video:\n" + strings.TrimSpace(req.Description)
}

func planPrompt(req EditPlanRequest) string {
	var b strings.Builder
	b.WriteString("Plan the edit for this script:\n")
	b.WriteString(strings.TrimSpace(req.Script))
	b.WriteString("\n\nAvailable assets:\n")
	for _, asset := range req.Assets {
		fmt.Fprintf(&b, "- %s\n", asset)
	}
	return b.String()
}
