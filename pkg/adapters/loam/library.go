// Package loam adapts a Loam repository to the flow library port.
// Flows live as Markdown files with YAML frontmatter: the frontmatter
// names and parameterizes the flow, the body lists its actions. The
// adapter reassembles both halves into one canonical flow document
// for the codec.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"gopkg.in/yaml.v3"
)

// Library adapts the Loam library to the espalier FlowLibrary port.
type Library struct {
	Repo *loam.TypedRepository[FlowMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[FlowMetadata]) *Library {
	return &Library{
		Repo: repo,
	}
}

// GetFlow retrieves a flow document and returns it as canonical YAML
// bytes for the codec. Loam resolves bare names to files, so asking
// for "greet" finds greet.md.
func (l *Library) GetFlow(name string) ([]byte, error) {
	ctx := context.Background()

	doc, err := l.Repo.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", name, err)
	}

	def, err := assembleFlowDoc(doc.ID, doc.Data, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", name, err)
	}

	data, err := yaml.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshaling flow %s: %w", name, err)
	}
	return data, nil
}

// assembleFlowDoc merges frontmatter and body into the canonical flow
// shape. A flow with no actions anywhere keeps the key absent rather
// than present-but-empty; validation treats those differently.
func assembleFlowDoc(docID string, meta FlowMetadata, content string) (map[string]any, error) {
	def := make(map[string]any)

	name := meta.Name
	if name == "" {
		name = trimExtension(docID)
	}
	def["name"] = name

	if meta.Description != "" {
		def["description"] = meta.Description
	}
	if len(meta.Requires) > 0 {
		def["requires"] = meta.Requires
	}
	if len(meta.EnvTypes) > 0 {
		def["env_types"] = meta.EnvTypes
	}
	if len(meta.Env) > 0 {
		def["env"] = meta.Env
	}

	actions, err := parseActions(content, meta)
	if err != nil {
		return nil, err
	}
	if actions != nil {
		def["actions"] = actions
	}
	return def, nil
}

// parseActions reads the action list from the Markdown body, falling
// back to frontmatter actions when the body is empty. The body may be
// a bare YAML list or an "actions:" mapping.
func parseActions(content string, meta FlowMetadata) (any, error) {
	body := strings.TrimSpace(content)
	if body == "" {
		if meta.Actions != nil {
			return meta.Actions, nil
		}
		return nil, nil
	}

	var raw any
	if err := yaml.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("parsing flow body: %w", err)
	}

	switch v := raw.(type) {
	case nil:
		if meta.Actions != nil {
			return meta.Actions, nil
		}
		return nil, nil
	case []any:
		return v, nil
	case map[string]any:
		if actions, ok := v["actions"]; ok {
			return actions, nil
		}
		return nil, fmt.Errorf("flow body must be an action list or an actions mapping")
	default:
		return nil, fmt.Errorf("flow body must be an action list, got %T", raw)
	}
}

// ListFlows lists all flow names in the repository.
func (l *Library) ListFlows() ([]string, error) {
	ctx := context.Background()
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	names := make([]string, 0, len(docs))

	for _, doc := range docs {
		raw := doc.Data.Name
		if raw == "" {
			raw = doc.ID
		}
		name := trimExtension(raw)

		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: flow %q is defined in both %q and %q", name, existing, doc.ID)
		}
		seen[name] = doc.ID
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// Watch implements ports.Watchable. Change events coalesce into a
// single pending reload signal.
func (l *Library) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
