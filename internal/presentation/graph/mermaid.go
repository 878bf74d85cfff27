// Package graph renders action trees as Mermaid flowcharts, for
// documentation and the graph subcommand.
package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/espalier/pkg/actions"
	"github.com/aretw0/espalier/pkg/domain"
)

// Overlay marks run progress on the rendered tree. Paths use the
// snapshot cursor syntax, sequence indexes alternating with branch
// labels ("/1/Then/0").
type Overlay struct {
	Visited []string
	Current string
}

// SnapshotOverlay derives an overlay from a tree a snapshot was
// applied to: completed actions are visited, the deepest interrupted
// action is current. A fresh tree yields an empty overlay.
func SnapshotOverlay(f *domain.Flow) *Overlay {
	o := &Overlay{}
	if cursor := f.Cursor(); len(cursor) > 0 {
		o.Current = "/" + strings.Join(cursor, "/")
	}
	o.collect("", &f.Body)
	return o
}

func (o *Overlay) collect(prefix string, seq *domain.Sequence) {
	for i, a := range seq.Actions() {
		path := prefix + "/" + strconv.Itoa(i)
		if a.Status() == domain.StatusCompleted {
			o.Visited = append(o.Visited, path)
		}
		if c, ok := a.(domain.Composite); ok {
			for _, b := range c.Branches() {
				o.collect(path+"/"+b.Label, b.Seq)
			}
		}
	}
}

// GenerateMermaid produces a Mermaid flowchart (graph TD) of the
// action tree. Shapes follow the action kind:
//   - the flow root: ((circle)); nested flows: [[subroutine]]
//   - If / While / For: {decision}
//   - wait_until: [/parallelogram/]
//   - delay: ([stadium])
//   - everything else: [rectangle]
//
// Siblings chain with solid arrows in execution order, branch entries
// carry the condition as the edge label, and loop bodies arrow back to
// their composite with a dotted line. An overlay, when given, paints
// visited and current actions.
func GenerateMermaid(f *domain.Flow, overlay *Overlay) string {
	w := &treeWriter{}
	w.sb.WriteString("graph TD\n")

	rootLabel := f.Name()
	if rootLabel == "" {
		rootLabel = "flow"
	}
	w.linef(`    root(("%s"))`, escapeLabel(rootLabel))

	head, _ := w.sequence("", &f.Body)
	if head != "" {
		w.linef("    root --> %s", head)
	}

	if overlay != nil {
		w.styles(overlay)
	}
	return w.sb.String()
}

type treeWriter struct {
	sb strings.Builder
}

func (w *treeWriter) linef(format string, args ...any) {
	fmt.Fprintf(&w.sb, format+"\n", args...)
}

// sequence renders the actions of one sequence and the chain edges
// between them, returning the first and last node IDs so callers can
// attach entry and loop-back edges.
func (w *treeWriter) sequence(prefix string, seq *domain.Sequence) (head, tail string) {
	for i, a := range seq.Actions() {
		path := prefix + "/" + strconv.Itoa(i)
		id := nodeID(path)
		w.node(id, a, path)
		if tail == "" {
			head = id
		} else {
			w.linef("    %s --> %s", tail, id)
		}
		tail = id
		w.branches(id, path, a)
	}
	return head, tail
}

func (w *treeWriter) node(id string, a domain.Action, path string) {
	opener, closer := "[", "]"
	switch a.(type) {
	case *domain.Flow:
		opener, closer = "[[", "]]"
	case *actions.If, *actions.While, *actions.For:
		opener, closer = "{", "}"
	case *actions.WaitUntil:
		opener, closer = "[/", "/]"
	case *actions.Delay:
		opener, closer = "([", "])"
	}

	label := a.Name()
	if label == "" {
		label = strings.TrimPrefix(path, "/")
	}
	label = escapeLabel(label)
	if note := annotate(a); note != "" {
		label += " <br/> " + note
	}
	w.linef(`    %s%s"%s"%s`, id, opener, label, closer)
}

// annotate adds the timing or retry budget to a node label.
func annotate(a domain.Action) string {
	switch v := a.(type) {
	case *actions.WaitUntil:
		if v.Timeout > 0 {
			return "⏱️ " + v.Timeout.String()
		}
	case *actions.Delay:
		if v.Duration > 0 {
			return "⏱️ " + v.Duration.String()
		}
	case *actions.RunProcess:
		if v.Retry.Times > 0 {
			return fmt.Sprintf("↻ %d", v.Retry.Times)
		}
	}
	return ""
}

func (w *treeWriter) branches(id, path string, a domain.Action) {
	switch v := a.(type) {
	case *actions.If:
		if head, _ := w.sequence(path+"/Then", &v.Then); head != "" {
			w.linef(`    %s -- "%s" --> %s`, id, escapeLabel(v.Condition), head)
		}
		if head, _ := w.sequence(path+"/Else", &v.Else); head != "" {
			w.linef(`    %s -- "else" --> %s`, id, head)
		}
	case *actions.While:
		if head, tail := w.sequence(path+"/Body", &v.Body); head != "" {
			w.linef(`    %s -- "%s" --> %s`, id, escapeLabel(v.Condition), head)
			w.linef("    %s -.-> %s", tail, id)
		}
	case *actions.For:
		if head, _ := w.sequence(path+"/Init", &v.Init); head != "" {
			w.linef(`    %s -- "init" --> %s`, id, head)
		}
		if head, tail := w.sequence(path+"/Body", &v.Body); head != "" {
			w.linef(`    %s -- "%s" --> %s`, id, escapeLabel(v.Condition), head)
			w.linef("    %s -.-> %s", tail, id)
		}
		if head, tail := w.sequence(path+"/Increment", &v.Increment); head != "" {
			w.linef(`    %s -- "step" --> %s`, id, head)
			w.linef("    %s -.-> %s", tail, id)
		}
	case *domain.Flow:
		if head, _ := w.sequence(path+"/Body", &v.Body); head != "" {
			w.linef("    %s --> %s", id, head)
		}
	default:
		if c, ok := a.(domain.Composite); ok {
			for _, b := range c.Branches() {
				if head, _ := w.sequence(path+"/"+b.Label, b.Seq); head != "" {
					w.linef(`    %s -- "%s" --> %s`, id, strings.ToLower(b.Label), head)
				}
			}
		}
	}
}

func (w *treeWriter) styles(o *Overlay) {
	w.sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text for contrast regardless of the viewer theme.
	w.sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	w.sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	seen := make(map[string]bool)
	for _, p := range o.Visited {
		id := nodeID(p)
		if seen[id] {
			continue
		}
		seen[id] = true
		w.linef("    class %s visited;", id)
	}
	if o.Current != "" {
		w.linef("    class %s current;", nodeID(o.Current))
	}
}

// nodeID flattens a tree path into a Mermaid-safe identifier.
func nodeID(path string) string {
	return "n" + strings.ReplaceAll(strings.TrimPrefix(path, "/"), "/", "_")
}

// escapeLabel keeps double quotes out of Mermaid labels.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}
