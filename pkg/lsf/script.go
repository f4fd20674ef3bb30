package lsf

import (
	"fmt"
	"strings"

	"lsf-finetune-launcher/pkg/utils"
)

// JobSpec is everything needed to render one job description. It is
// built from the launcher config at invocation start and discarded after
// submission; nothing about it is persisted except the history record.
type JobSpec struct {
	GpuType  string
	GpuCount int
	JobName  string
	Queue    string
}

func (s *JobSpec) Validate() error {
	if err := utils.ValidateJobName(s.JobName); err != nil {
		return err
	}
	if s.GpuCount < 1 {
		return fmt.Errorf("gpu count must be >= 1, got %d", s.GpuCount)
	}
	if s.Queue == "" {
		return fmt.Errorf("queue is empty")
	}
	return nil
}

// FileStem is the base name for the job script and the redirection
// targets.
func (s *JobSpec) FileStem() string {
	return utils.SafeFileStem(s.JobName)
}

// ScriptName is the name of the temporary job script handed to bsub.
func (s *JobSpec) ScriptName() string {
	return s.FileStem() + utils.JobScriptSuffix
}

// Render produces the job description document: the #BSUB directive
// block followed by the training command line.
func (s *JobSpec) Render(command string) string {
	stem := s.FileStem()

	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	fmt.Fprintf(&b, "#BSUB -gpu \"num=%d:mode=%s\"\n", s.GpuCount, utils.GpuExclusiveMode)
	fmt.Fprintf(&b, "#BSUB -n %d\n", s.GpuCount)
	fmt.Fprintf(&b, "#BSUB -q %s\n", s.Queue)
	fmt.Fprintf(&b, "#BSUB -o %s%s\n", stem, utils.StdoutSuffix)
	fmt.Fprintf(&b, "#BSUB -e %s%s\n", stem, utils.StderrSuffix)
	fmt.Fprintf(&b, "#BSUB -J %s\n", s.JobName)
	b.WriteString(command)
	b.WriteString("\n")
	return b.String()
}
