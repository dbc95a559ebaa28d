package graph

// Tableau10 is the default categorical palette for node groups
var Tableau10 = []string{
	"#4e79a7", "#f28e2c", "#e15759", "#76b7b2", "#59a14f",
	"#edc949", "#af7aa1", "#ff9da7", "#9c755f", "#bab0ab",
}

// RenderOptions is the configuration bag handed to the browser renderer
// along with Data. Accessors name the node/link fields the renderer reads.
// Zero strengths are omitted so the simulation keeps its own defaults.
type RenderOptions struct {
	NodeID            string   `json:"nodeId"`
	NodeGroup         string   `json:"nodeGroup,omitempty"`
	NodeTitle         string   `json:"nodeTitle,omitempty"`
	NodeFill          string   `json:"nodeFill"`
	NodeStroke        string   `json:"nodeStroke"`
	NodeStrokeWidth   float64  `json:"nodeStrokeWidth"`
	NodeStrokeOpacity float64  `json:"nodeStrokeOpacity"`
	NodeRadius        float64  `json:"nodeRadius"`
	NodeStrength      float64  `json:"nodeStrength,omitempty"`
	LinkSource        string   `json:"linkSource"`
	LinkTarget        string   `json:"linkTarget"`
	LinkStroke        string   `json:"linkStroke"`
	LinkStrokeOpacity float64  `json:"linkStrokeOpacity"`
	LinkStrokeWidth   float64  `json:"linkStrokeWidth"`
	LinkStrokeLinecap string   `json:"linkStrokeLinecap"`
	LinkStrength      float64  `json:"linkStrength,omitempty"`
	Colors            []string `json:"colors"`
	Width             int      `json:"width"`
	Height            int      `json:"height"`
}

// DefaultRenderOptions returns the renderer defaults with nodes colored by group and titled by id
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		NodeID:            "id",
		NodeGroup:         "group",
		NodeTitle:         "id",
		NodeFill:          "currentColor",
		NodeStroke:        "#fff",
		NodeStrokeWidth:   1.5,
		NodeStrokeOpacity: 1,
		NodeRadius:        5,
		LinkSource:        "source",
		LinkTarget:        "target",
		LinkStroke:        "#999",
		LinkStrokeOpacity: 0.6,
		LinkStrokeWidth:   1.5,
		LinkStrokeLinecap: "round",
		Colors:            append([]string(nil), Tableau10...),
		Width:             640,
		Height:            400,
	}
}
