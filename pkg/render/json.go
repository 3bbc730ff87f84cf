package render

import (
	"encoding/json"

	"github.com/matzehuels/forcegraph/pkg/scene"
)

// SceneJSON is the serialization format of a scene.
type SceneJSON struct {
	Canvas     scene.Canvas       `json:"canvas"`
	Generation int                `json:"generation"`
	Edges      []scene.EdgeVisual `json:"edges"`
	Nodes      []scene.NodeVisual `json:"nodes"`
	Tooltip    scene.Tooltip      `json:"tooltip"`
}

// ExportScene captures the scene in its serializable form.
func ExportScene(s *scene.Scene) SceneJSON {
	g := s.Root()
	return SceneJSON{
		Canvas:     s.Canvas(),
		Generation: g.Generation,
		Edges:      g.Edges(),
		Nodes:      g.Nodes(),
		Tooltip:    s.Tooltip(),
	}
}

// RenderJSON serializes the scene to indented JSON.
func RenderJSON(s *scene.Scene) ([]byte, error) {
	return json.MarshalIndent(ExportScene(s), "", "  ")
}
