package utils

type TrainConfig struct {
	// Entrypoint is the distributed launcher binary, Script the training
	// script it runs.
	Entrypoint      string `mapstructure:"entrypoint" yaml:"entrypoint"`
	Hostfile        string `mapstructure:"hostfile" yaml:"hostfile"`
	Script          string `mapstructure:"script" yaml:"script"`
	DataPath        string `mapstructure:"data-path" yaml:"dataPath"`
	ModelPath       string `mapstructure:"model-path" yaml:"modelPath"`
	OutputDir       string `mapstructure:"output-dir" yaml:"outputDir"`
	DeepspeedConfig string `mapstructure:"deepspeed-config" yaml:"deepspeedConfig"`
}

type MonitorConfig struct {
	// TextfilePath is where submission metrics are written in
	// node-exporter textfile format. Empty disables the export.
	TextfilePath string `mapstructure:"textfile-path" yaml:"textfilePath"`
}

type Config struct {
	LogLevel     string            `mapstructure:"log-level"`
	WorkDir      string            `mapstructure:"work-dir"`
	DefaultQueue string            `mapstructure:"default-queue"`
	Queues       map[string]string `mapstructure:"queues"`
	QueuesFile   string            `mapstructure:"queues-file"`
	StorePath    string            `mapstructure:"store-path"`
	GpuType      string            `mapstructure:"gpu-type"`
	GpuCount     int               `mapstructure:"gpu-count"`
	JobName      string            `mapstructure:"job-name"`
	Train        TrainConfig       `mapstructure:"train"`
	Monitor      MonitorConfig     `mapstructure:"monitor"`
}

// QueueForGpuType maps a GPU type onto a scheduler queue. Unknown types
// fall back to the default queue rather than failing.
func (c *Config) QueueForGpuType(gpuType string) (string, bool) {
	if queue, ok := c.Queues[gpuType]; ok {
		return queue, true
	}
	if c.DefaultQueue != "" {
		return c.DefaultQueue, false
	}
	return DefaultQueue, false
}
