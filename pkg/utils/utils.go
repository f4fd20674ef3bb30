package utils

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// QueueCatalog describes the GPU queues of the cluster. It is the
// launcher-side mirror of what `bqueues` would report, maintained by the
// cluster operators.
type QueueCatalog struct {
	DefaultQueue string  `yaml:"defaultQueue"`
	Queues       []Queue `yaml:"queues"`
}

type Queue struct {
	Name        string `yaml:"name"`
	GpuType     string `yaml:"gpuType"`
	Description string `yaml:"description"`
}

// ParseQueuesConfig reads the queue catalog YAML file.
func ParseQueuesConfig(path string) (*QueueCatalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queue catalog %s: %w", path, err)
	}
	catalog := &QueueCatalog{}
	if err := yaml.Unmarshal(content, catalog); err != nil {
		return nil, fmt.Errorf("parse queue catalog %s: %w", path, err)
	}
	return catalog, nil
}

// GpuTypeMap flattens the catalog into the gpuType -> queue mapping the
// submitter consumes.
func (c *QueueCatalog) GpuTypeMap() map[string]string {
	m := make(map[string]string, len(c.Queues))
	for _, q := range c.Queues {
		if q.GpuType == "" {
			continue
		}
		m[q.GpuType] = q.Name
	}
	return m
}

// BuiltinQueues is the mapping used when no catalog is configured: V100
// nodes live in their own queue, everything else shares the default one.
func BuiltinQueues() map[string]string {
	return map[string]string{V100GpuType: V100Queue}
}

// ValidateJobName rejects names that cannot identify a job. Separator
// handling is left to SafeFileStem.
func ValidateJobName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("job name is empty")
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("job name contains a NUL byte")
	}
	return nil
}
