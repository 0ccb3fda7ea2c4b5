package compose

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/labgate/internal/dag"
	"github.com/vk/labgate/internal/registry"
)

// Manifest maps every task whose spans were found to the files that
// originally contained them. Entries follow the graph's topological order
// so downstream grading configuration can reconstruct the curriculum
// sequence without re-deriving it.
type Manifest struct {
	Version int            `yaml:"version"`
	Tasks   []ManifestTask `yaml:"tasks"`
}

// ManifestTask is one manifest entry.
type ManifestTask struct {
	Task  string   `yaml:"task"`
	Lab   string   `yaml:"lab"`
	Files []string `yaml:"files"`
}

// BuildManifest assembles the manifest from the registry and the validated
// graph. Tasks without spans (declared but not present in the tree) are
// excluded: the manifest lists exactly what the scan found.
func BuildManifest(reg *registry.Registry, g *dag.Graph) *Manifest {
	m := &Manifest{Version: 1}
	for _, slug := range g.TopoOrder() {
		task := reg.Tasks[slug]
		if task == nil || len(task.Spans) == 0 {
			continue
		}
		m.Tasks = append(m.Tasks, ManifestTask{
			Task:  task.Slug,
			Lab:   task.Lab,
			Files: task.Files(),
		})
	}
	return m
}

// WriteFile marshals the manifest to YAML at path.
func (m *Manifest) WriteFile(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
