package utils

const (
	DefaultConfigDir = "/etc/lsf-finetune-launcher/"

	// Environment variables recognized by the launcher. All optional.
	GpuTypeEnv  = "GPU_TYPE"
	GpuCountEnv = "GPU_NUM"
	JobNameEnv  = "JOB_NAME"

	DefaultGpuType  = "A100"
	DefaultGpuCount = 1
	DefaultJobName  = "finetune"

	// Queue names used when no queue catalog is configured.
	DefaultQueue = "gpu"
	V100Queue    = "gpu_v100"
	V100GpuType  = "V100"

	GpuExclusiveMode = "exclusive_process"

	JobScriptSuffix = ".sh"
	StdoutSuffix    = ".out"
	StderrSuffix    = ".err"

	SubmissionsFile = "submissions.json"
)
