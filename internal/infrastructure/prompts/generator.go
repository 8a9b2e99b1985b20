package prompts

import (
	"bytes"
	"fmt"
	"sort"

	"browser-harness/internal/domain/entity"
)

type TaskData struct {
	Query  string
	Schema string
}

type ExtractData struct {
	Instruction string
	Content     string
}

type GroundData struct {
	Action    string
	Elements  []entity.UIElement
	Variables []string
}

type ObserveData struct {
	Instruction string
	Elements    []entity.UIElement
}

type VisualData struct {
	URL    string
	Action string
}

type StructuredData struct {
	Transcript string
	Schema     string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func Task(data TaskData) (string, error) {
	return render("task.tmpl", data)
}

func Extract(data ExtractData) (string, error) {
	return render("extract.tmpl", data)
}

// Ground lists only variable names; the values stay on this side.
func Ground(action string, elements []entity.UIElement, variables map[string]string) (string, error) {
	names := make([]string, 0, len(variables))
	for name := range variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return render("ground.tmpl", GroundData{Action: action, Elements: elements, Variables: names})
}

func Observe(data ObserveData) (string, error) {
	return render("observe.tmpl", data)
}

func Visual(data VisualData) (string, error) {
	return render("visual.tmpl", data)
}

func Structured(data StructuredData) (string, error) {
	return render("structured.tmpl", data)
}
