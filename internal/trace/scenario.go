package trace

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a recorded debugging session kept as YAML.
type Scenario struct {
	Name          string         `yaml:"name"`
	Editor        *EditorState   `yaml:"editor,omitempty"`
	Notifications []Notification `yaml:"notifications"`
}

func ParseYAML(b []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}
	for i, n := range sc.Notifications {
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("notification %d: %w", i, err)
		}
	}
	return &sc, nil
}

func LoadYAML(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseYAML(b)
}

// Replay applies every notification of the scenario to t in order.
func (sc *Scenario) Replay(t Target, ws *Workspace) error {
	if sc.Editor != nil && ws != nil {
		ws.Update(*sc.Editor)
	}
	for i, n := range sc.Notifications {
		if err := Apply(n, t, ws); err != nil {
			return fmt.Errorf("notification %d: %w", i, err)
		}
	}
	return nil
}
