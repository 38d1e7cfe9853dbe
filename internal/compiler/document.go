package compiler

// Document is the YAML form of a process definition. Keys follow the
// mapstructure tags.
type Document struct {
	ID         string         `json:"id" mapstructure:"id"`
	Name       string         `json:"name" mapstructure:"name"`
	Initial    string         `json:"initial" mapstructure:"initial"`
	Properties map[string]any `json:"properties" mapstructure:"properties"`
	Listeners  []Listener     `json:"listeners" mapstructure:"listeners"`
	Activities []Activity     `json:"activities" mapstructure:"activities"`
}

// Activity declares one activity and, recursively, its nested activities.
type Activity struct {
	ID          string         `json:"id" mapstructure:"id"`
	Behavior    string         `json:"behavior" mapstructure:"behavior"`
	Params      map[string]any `json:"params" mapstructure:"params"`
	Initial     bool           `json:"initial" mapstructure:"initial"`
	Scope       bool           `json:"scope" mapstructure:"scope"`
	Async       bool           `json:"async" mapstructure:"async"`
	Exclusive   bool           `json:"exclusive" mapstructure:"exclusive"`
	Properties  map[string]any `json:"properties" mapstructure:"properties"`
	Listeners   []Listener     `json:"listeners" mapstructure:"listeners"`
	Transitions []Transition   `json:"transitions" mapstructure:"transitions"`
	Activities  []Activity     `json:"activities" mapstructure:"activities"`
}

// Transition declares an outgoing edge. Condition is shorthand for the
// "condition" property read by exclusive gateways.
type Transition struct {
	ID         string         `json:"id" mapstructure:"id"`
	To         string         `json:"to" mapstructure:"to"`
	Condition  string         `json:"condition" mapstructure:"condition"`
	Properties map[string]any `json:"properties" mapstructure:"properties"`
	Listeners  []Listener     `json:"listeners" mapstructure:"listeners"`
}

// Listener references a registered listener. Event is ignored on
// transitions, which only fire "take".
type Listener struct {
	Event  string         `json:"event" mapstructure:"event"`
	Type   string         `json:"type" mapstructure:"type"`
	Params map[string]any `json:"params" mapstructure:"params"`
}
