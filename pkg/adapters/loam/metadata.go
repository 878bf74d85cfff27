package loam

// FlowMetadata is the frontmatter of a flow document. The Markdown
// body carries the action list; small flows may instead inline their
// actions here, which also covers pure-data files where the whole
// document parses as metadata.
type FlowMetadata struct {
	Name        string         `json:"name" mapstructure:"name"`
	Description string         `json:"description" mapstructure:"description"`
	Env         map[string]any `json:"env" mapstructure:"env"`
	Actions     []any          `json:"actions" mapstructure:"actions"`

	// Requires lists environment keys the host must provide at run
	// time. EnvTypes declares value types; both pass through to the
	// codec untouched, sugar included.
	Requires []string       `json:"requires" mapstructure:"requires"`
	EnvTypes map[string]any `json:"env_types" mapstructure:"env_types"`
}
