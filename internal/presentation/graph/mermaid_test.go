package graph_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/actions"
	"github.com/aretw0/espalier/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		flow     func() *domain.Flow
		contains []string
	}{
		{
			name: "root and sibling chain",
			flow: func() *domain.Flow {
				f := domain.NewFlow("deploy")
				f.Body.Append(
					actions.NewDelay("warmup", time.Second),
					actions.NewSetVariable("attempts", "0"),
				)
				return f
			},
			contains: []string{
				`root(("deploy"))`,
				"root --> n0",
				"n0 --> n1",
			},
		},
		{
			name: "decision shape and condition label",
			flow: func() *domain.Flow {
				f := domain.NewFlow("gate")
				cond := actions.NewIf("check", `answer == "yes"`)
				cond.Then.Append(actions.NewDelay("go", time.Second))
				cond.Else.Append(actions.NewDelay("stop", time.Second))
				f.Body.Append(cond)
				return f
			},
			contains: []string{
				`n0{"check"}`,
				`n0 -- "answer == 'yes'" --> n0_Then_0`,
				`n0 -- "else" --> n0_Else_0`,
			},
		},
		{
			name: "loop body arrows back",
			flow: func() *domain.Flow {
				f := domain.NewFlow("drain")
				loop := actions.NewWhile("more", "pending > 0")
				loop.Body.Append(actions.NewDelay("tick", time.Second))
				f.Body.Append(loop)
				return f
			},
			contains: []string{
				`n0 -- "pending > 0" --> n0_Body_0`,
				"n0_Body_0 -.-> n0",
			},
		},
		{
			name: "wait and delay shapes with timing notes",
			flow: func() *domain.Flow {
				f := domain.NewFlow("sync")
				wait := actions.NewWaitUntil("settle", "done")
				wait.Timeout = 30 * time.Second
				f.Body.Append(wait, actions.NewDelay("", 250*time.Millisecond))
				return f
			},
			contains: []string{
				`n0[/"settle <br/> ⏱️ 30s"/]`,
				`n1(["1 <br/> ⏱️ 250ms"])`,
			},
		},
		{
			name: "nested flow renders as subroutine",
			flow: func() *domain.Flow {
				child := domain.NewFlow("ingest")
				child.Body.Append(actions.NewDelay("pull", time.Second))
				f := domain.NewFlow("parent")
				f.Body.Append(child)
				return f
			},
			contains: []string{
				`n0[["ingest"]]`,
				"n0 --> n0_Body_0",
			},
		},
		{
			name: "for loop labels all three phases",
			flow: func() *domain.Flow {
				f := domain.NewFlow("batch")
				loop := actions.NewFor("pages", "page < 3")
				loop.Init.Append(actions.NewSetVariable("page", "0"))
				loop.Body.Append(actions.NewDelay("fetch", time.Second))
				loop.Increment.Append(actions.NewSetVariable("page", "page + 1"))
				f.Body.Append(loop)
				return f
			},
			contains: []string{
				`n0 -- "init" --> n0_Init_0`,
				`n0 -- "page < 3" --> n0_Body_0`,
				`n0 -- "step" --> n0_Increment_0`,
				"n0_Increment_0 -.-> n0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.flow(), nil)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nwant substring: %v", got, want)
				}
			}
		})
	}
}

func TestGenerateMermaidOverlay(t *testing.T) {
	f := domain.NewFlow("resume")
	f.Body.Append(
		actions.NewDelay("first", time.Second),
		actions.NewDelay("second", time.Second),
	)

	got := graph.GenerateMermaid(f, &graph.Overlay{Visited: []string{"/0"}, Current: "/1"})

	for _, want := range []string{
		"classDef visited",
		"classDef current",
		"class n0 visited;",
		"class n1 current;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestSnapshotOverlay(t *testing.T) {
	f := domain.NewFlow("resume")
	f.Body.Append(
		actions.NewDelay("first", time.Second),
		actions.NewDelay("second", time.Second),
	)
	if err := f.Body.Seek(1); err != nil {
		t.Fatalf("seek: %v", err)
	}

	o := graph.SnapshotOverlay(f)
	if len(o.Visited) != 1 || o.Visited[0] != "/0" {
		t.Errorf("Visited = %v, want [/0]", o.Visited)
	}
	if o.Current != "/1" {
		t.Errorf("Current = %q, want /1", o.Current)
	}
}
