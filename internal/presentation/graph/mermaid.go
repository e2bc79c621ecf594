package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/techninja/techninja/pkg/domain"
)

// GraphOverlay contains traversal data to visualize on the graph.
type GraphOverlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// OverlayFromState builds an overlay from a traversal state.
func OverlayFromState(state domain.TraversalState) *GraphOverlay {
	return &GraphOverlay{
		VisitedSteps: state.History,
		CurrentStep:  state.CurrentStepID,
	}
}

// GenerateMermaid produces a Mermaid flowchart of a machine graph.
// Shapes are semantic:
// - Symptom: ((Circle)) pointing at its start step
// - Decision: [Rectangle]
// - Result: {{Hexagon}} labelled with the result title
// - Missing step: [/Trapezoid/] styled as an error
// Steps are emitted in sorted order so the output is stable.
func GenerateMermaid(g *domain.MachineGraph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if g == nil {
		return sb.String()
	}

	missing := make(map[string]bool)
	edge := func(from, label, to string) {
		if !g.HasStep(to) {
			missing[to] = true
		}
		if label == "" {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", stepNode(from), stepNode(to)))
			return
		}
		sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", stepNode(from), escape(label), stepNode(to)))
	}

	for _, s := range g.Symptoms {
		sid := "symptom_" + sanitizeMermaidID(s.ID)
		name := s.Name
		if name == "" {
			name = s.ID
		}
		sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", sid, escape(name)))
		if !g.HasStep(s.Start) {
			missing[s.Start] = true
		}
		sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", sid, stepNode(s.Start)))
	}

	ids := make([]string, 0, len(g.Steps))
	for id := range g.Steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		step := g.Steps[id]
		if step.IsResult() {
			sb.WriteString(fmt.Sprintf("    %s{{\"%s\"}}\n", stepNode(id), escape(step.Result.Title)))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", stepNode(id), escape(id)))
		for _, opt := range step.Options {
			if opt.Next == "" {
				continue
			}
			edge(id, opt.Label, opt.Next)
		}
		if len(step.Options) == 0 && step.Next != "" {
			edge(id, "", step.Next)
		}
	}

	if len(missing) > 0 {
		targets := make([]string, 0, len(missing))
		for id := range missing {
			targets = append(targets, id)
		}
		sort.Strings(targets)

		sb.WriteString("\n    %% Missing steps\n")
		sb.WriteString("    classDef missing fill:#ffebee,stroke:#c62828,stroke-dasharray: 5 5,color:#000;\n")
		for _, id := range targets {
			sb.WriteString(fmt.Sprintf("    %s[/\"%s (missing)\"/]\n", stepNode(id), escape(id)))
			sb.WriteString(fmt.Sprintf("    class %s missing;\n", stepNode(id)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			if id == "" || visited[id] || id == overlay.CurrentStep {
				continue
			}
			visited[id] = true
			sb.WriteString(fmt.Sprintf("    class %s visited;\n", stepNode(id)))
		}
		if overlay.CurrentStep != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", stepNode(overlay.CurrentStep)))
		}
	}

	return sb.String()
}

func stepNode(id string) string {
	return "step_" + sanitizeMermaidID(id)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
