package tui

import (
	"fmt"
	"strings"

	"github.com/techninja/techninja/pkg/domain"
)

// MachineList renders the catalogue as a numbered list.
func MachineList(machines []domain.Machine) string {
	var sb strings.Builder
	sb.WriteString("## Select a machine\n\n")
	for i, m := range machines {
		sb.WriteString(fmt.Sprintf("%d. **%s**", i+1, m.Name))
		if m.Subtitle != "" {
			sb.WriteString(" · " + m.Subtitle)
		}
		if m.Tag != "" {
			sb.WriteString(fmt.Sprintf(" `%s`", m.Tag))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// LoadFailure renders the panel shown when a machine graph could not be loaded.
func LoadFailure(machine domain.Machine, err error) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", machine.Name))
	sb.WriteString("> **Could not load machine data.**\n")
	if err != nil {
		sb.WriteString(fmt.Sprintf(">\n> %s\n", err))
	}
	sb.WriteString("\nCheck your connection and select the machine again.\n")
	return sb.String()
}

// View renders the current wizard panel as markdown.
func View(v domain.View, machine domain.Machine) string {
	switch v.Kind {
	case domain.ViewDecision:
		return decision(v)
	case domain.ViewResult:
		return result(v)
	}

	if v.MachineID == "" {
		return "_No machine selected._\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", nameOr(machine.Name, v.MachineID)))
	if len(v.Symptoms) == 0 {
		sb.WriteString("_No symptoms available._\n")
		return sb.String()
	}
	sb.WriteString("What is the machine doing?\n\n")
	for i, s := range v.Symptoms {
		sb.WriteString(fmt.Sprintf("%d. **%s**", i+1, nameOr(s.Name, s.ID)))
		if s.Description != "" {
			sb.WriteString(" · " + s.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func decision(v domain.View) string {
	var sb strings.Builder
	header(&sb, v)
	sb.WriteString(v.Step.Text + "\n\n")
	if v.Step.Note != "" {
		sb.WriteString("> " + v.Step.Note + "\n\n")
	}
	for i, opt := range v.Options {
		label := opt.Label
		if opt.Primary {
			label = "**" + label + "**"
		}
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, label))
	}
	return sb.String()
}

func result(v domain.View) string {
	r := v.Step.Result

	var sb strings.Builder
	header(&sb, v)
	sb.WriteString(fmt.Sprintf("## %s\n\n", nameOr(r.Title, "Result")))
	if pill := ConfidencePill(r.Confidence); pill != "" {
		sb.WriteString("`" + pill + "`\n\n")
	}
	if v.Step.Text != "" {
		sb.WriteString(v.Step.Text + "\n\n")
	}
	if r.LikelyCause != "" {
		sb.WriteString("**Likely cause:** " + r.LikelyCause + "\n\n")
	}
	list(&sb, "Field fix", r.FieldFix)
	list(&sb, "Official procedure", r.Official)
	if len(r.Warnings) > 0 {
		for _, w := range r.Warnings {
			sb.WriteString("> ⚠ " + w + "\n")
		}
		sb.WriteString("\n")
	}
	if p := r.Provenance; p != nil && (len(p.Sources) > 0 || p.LastConfirmed != "") {
		sb.WriteString("---\n\n")
		if len(p.Sources) > 0 {
			sb.WriteString("_Sources: " + strings.Join(p.Sources, ", ") + "_\n\n")
		}
		if p.LastConfirmed != "" {
			sb.WriteString("_Last confirmed: " + p.LastConfirmed + "_\n")
		}
	}
	return sb.String()
}

// ConfidencePill formats a confidence rating, e.g. "CONFIDENCE: HIGH (90)".
func ConfidencePill(c *domain.Confidence) string {
	if c == nil {
		return ""
	}
	level := c.Level
	if level == "" {
		level = domain.ConfidenceUnknown
	}
	pill := "CONFIDENCE: " + strings.ToUpper(string(level))
	if c.Score != nil {
		pill += fmt.Sprintf(" (%d)", *c.Score)
	}
	return pill
}

func header(sb *strings.Builder, v domain.View) {
	if v.Symptom != nil {
		sb.WriteString(fmt.Sprintf("_%s_ · step %d\n\n", nameOr(v.Symptom.Name, v.Symptom.ID), v.Depth+1))
	}
}

func list(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("### %s\n\n", title))
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, item))
	}
	sb.WriteString("\n")
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
