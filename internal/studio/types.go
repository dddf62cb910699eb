package studio

// IdeaRequest asks for short-video concepts around a topic.
type IdeaRequest struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Idea is one pitched video concept.
type Idea struct {
	Title   string `json:"title"`
	Hook    string `json:"hook"`
	Outline string `json:"outline"`
}

// IdeaSet is the result of a brainstorm request.
type IdeaSet struct {
	RequestID string `json:"request_id"`
	Topic     string `json:"topic"`
	Ideas     []Idea `json:"ideas"`
}

// ScriptRequest asks for a full short-video script for one idea.
type ScriptRequest struct {
	Idea            string `json:"idea"`
	DurationSeconds int    `json:"duration_seconds"`
	Tone            string `json:"tone"`
}

// Scene is one beat of a script: what is said and what is shown.
type Scene struct {
	Narration       string `json:"narration"`
	Visual          string `json:"visual"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Script is the result of a draft request.
type Script struct {
	RequestID    string  `json:"request_id"`
	Title        string  `json:"title"`
	Hook         string  `json:"hook"`
	Scenes       []Scene `json:"scenes"`
	CallToAction string  `json:"call_to_action"`
}

// ImageRequest asks for one generated still image.
type ImageRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
}

// ImageAsset points at a generated image stored under the assets
// directory.
type ImageAsset struct {
	RequestID string `json:"request_id"`
	Path      string `json:"path"`
	MIME      string `json:"mime"`
	Bytes     int    `json:"bytes"`
}

// AssessmentRequest asks for a critique of a described piece of media.
type AssessmentRequest struct {
	Description string `json:"description"`
}

// Assessment is the result of a critique request.
type Assessment struct {
	RequestID   string   `json:"request_id"`
	Score       int      `json:"score"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
}

// EditPlanRequest asks for an assembly plan given a script and the
// assets on hand.
type EditPlanRequest struct {
	Script string   `json:"script"`
	Assets []string `json:"assets"`
}

// EditStep is one ordered instruction in an edit plan.
type EditStep struct {
	Order           int    `json:"order"`
	Asset           string `json:"asset"`
	Action          string `json:"action"`
	DurationSeconds int    `json:"duration_seconds"`
	Notes           string `json:"notes"`
}

// EditPlan is the result of a planning request.
type EditPlan struct {
	RequestID string     `json:"request_id"`
	Steps     []EditStep `json:"steps"`
}
