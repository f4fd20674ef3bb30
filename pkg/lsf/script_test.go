package lsf

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDirectiveOrder(t *testing.T) {
	spec := JobSpec{
		GpuType:  "V100",
		GpuCount: 2,
		JobName:  "run7",
		Queue:    "gpu_v100",
	}

	document := spec.Render("deepspeed fine-tune/fine-tune.py --epochs 3")
	lines := strings.Split(strings.TrimRight(document, "\n"), "\n")

	require.Len(t, lines, 8)
	assert.Equal(t, "#!/bin/bash", lines[0])
	assert.Equal(t, `#BSUB -gpu "num=2:mode=exclusive_process"`, lines[1])
	assert.Equal(t, "#BSUB -n 2", lines[2])
	assert.Equal(t, "#BSUB -q gpu_v100", lines[3])
	assert.Equal(t, "#BSUB -o run7.out", lines[4])
	assert.Equal(t, "#BSUB -e run7.err", lines[5])
	assert.Equal(t, "#BSUB -J run7", lines[6])
	assert.True(t, strings.HasSuffix(lines[7], "--epochs 3"))
}

func TestRenderEchoesGpuCount(t *testing.T) {
	for _, count := range []int{1, 4, 8} {
		spec := JobSpec{GpuType: "A100", GpuCount: count, JobName: "j", Queue: "gpu"}
		document := spec.Render("true")
		assert.Contains(t, document, "#BSUB -gpu \"num="+strconv.Itoa(count)+":mode=exclusive_process\"")
		assert.Contains(t, document, "#BSUB -n "+strconv.Itoa(count)+"\n")
	}
}

func TestValidate(t *testing.T) {
	valid := JobSpec{GpuType: "A100", GpuCount: 1, JobName: "ok", Queue: "gpu"}
	assert.NoError(t, valid.Validate())

	noName := valid
	noName.JobName = "  "
	assert.Error(t, noName.Validate())

	zeroGpus := valid
	zeroGpus.GpuCount = 0
	assert.Error(t, zeroGpus.Validate())

	noQueue := valid
	noQueue.Queue = ""
	assert.Error(t, noQueue.Validate())
}

func TestScriptNameEscapesSeparators(t *testing.T) {
	spec := JobSpec{GpuType: "A100", GpuCount: 1, JobName: "exp/one", Queue: "gpu"}
	assert.NotContains(t, spec.ScriptName(), "/")
	assert.True(t, strings.HasSuffix(spec.ScriptName(), ".sh"))

	plain := JobSpec{GpuType: "A100", GpuCount: 1, JobName: "run7", Queue: "gpu"}
	assert.Equal(t, "run7.sh", plain.ScriptName())
}
