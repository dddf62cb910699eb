package testsupport

import (
	"context"
	"encoding/json"
	"sync"

	"reelsmith/internal/services/genai"
)

// ScriptedGenerator replays canned JSON replies and images in order.
// It satisfies the studio's generator interface.
type ScriptedGenerator struct {
	mu      sync.Mutex
	Replies []string
	Images  []*genai.Image
	Err     error
}

func (g *ScriptedGenerator) CompleteJSON(ctx context.Context, system, user string, out any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return g.Err
	}
	if len(g.Replies) == 0 {
		return &genai.UpstreamError{Category: genai.CategoryMalformed, Message: "no scripted reply"}
	}
	reply := g.Replies[0]
	g.Replies = g.Replies[1:]
	return json.Unmarshal([]byte(reply), out)
}

func (g *ScriptedGenerator) GenerateImage(ctx context.Context, prompt string) (*genai.Image, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	if len(g.Images) == 0 {
		return nil, &genai.UpstreamError{Category: genai.CategoryMalformed, Message: "no scripted image"}
	}
	image := g.Images[0]
	g.Images = g.Images[1:]
	return image, nil
}

func (g *ScriptedGenerator) Model() string { return "fake/model" }

// SetErr swaps the scripted failure under the lock.
func (g *ScriptedGenerator) SetErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Err = err
}
