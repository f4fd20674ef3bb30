package job

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lsf-finetune-launcher/pkg/utils"
)

type fakeScheduler struct {
	script    string
	jobId     uint64
	queue     string
	submitErr error
	killed    []uint64
}

func (f *fakeScheduler) Bsub(_ context.Context, script string) (uint64, string, error) {
	f.script = script
	if f.submitErr != nil {
		return 0, "", f.submitErr
	}
	return f.jobId, f.queue, nil
}

func (f *fakeScheduler) Bkill(_ context.Context, jobId uint64) error {
	f.killed = append(f.killed, jobId)
	return nil
}

func testConfig(t *testing.T) *utils.Config {
	return &utils.Config{
		WorkDir:      t.TempDir(),
		DefaultQueue: utils.DefaultQueue,
		Queues:       utils.BuiltinQueues(),
		GpuType:      utils.DefaultGpuType,
		GpuCount:     utils.DefaultGpuCount,
		JobName:      utils.DefaultJobName,
	}
}

func TestNewJobSpecDefaults(t *testing.T) {
	submitter := NewSubmitter(testConfig(t), nil, nil)
	spec := submitter.NewJobSpec()

	assert.Equal(t, utils.DefaultGpuType, spec.GpuType)
	assert.Equal(t, 1, spec.GpuCount)
	assert.Equal(t, utils.DefaultJobName, spec.JobName)
	assert.Equal(t, utils.DefaultQueue, spec.Queue)
}

func TestNewJobSpecQueueSelection(t *testing.T) {
	cfg := testConfig(t)

	cfg.GpuType = utils.V100GpuType
	assert.Equal(t, utils.V100Queue, NewSubmitter(cfg, nil, nil).NewJobSpec().Queue)

	// Anything but V100 lands in the default queue, including unknown
	// types (permissive fallback).
	for _, gpuType := range []string{"A100", "A800", "H100", "bogus"} {
		cfg.GpuType = gpuType
		assert.Equal(t, utils.DefaultQueue, NewSubmitter(cfg, nil, nil).NewJobSpec().Queue, gpuType)
	}
}

func TestSubmitDefaultScenario(t *testing.T) {
	cfg := testConfig(t)
	sched := &fakeScheduler{jobId: 101, queue: utils.DefaultQueue}
	submitter := NewSubmitter(cfg, sched, nil)

	result, err := submitter.Submit(context.Background(), submitter.NewJobSpec(), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(101), result.JobId)
	assert.Equal(t, utils.DefaultQueue, result.Queue)

	assert.Contains(t, sched.script, `#BSUB -gpu "num=1:mode=exclusive_process"`)
	assert.Contains(t, sched.script, "#BSUB -q gpu\n")
	assert.Contains(t, sched.script, "#BSUB -J finetune\n")
	// No forwarded args: the command line ends with the last baked-in
	// hyperparameter.
	assert.True(t, strings.HasSuffix(strings.TrimRight(sched.script, "\n"), "--use_lora True"))
}

func TestSubmitV100Scenario(t *testing.T) {
	cfg := testConfig(t)
	cfg.GpuType = utils.V100GpuType
	cfg.GpuCount = 2
	cfg.JobName = "run7"
	sched := &fakeScheduler{jobId: 202, queue: utils.V100Queue}
	submitter := NewSubmitter(cfg, sched, nil)

	result, err := submitter.Submit(context.Background(), submitter.NewJobSpec(), []string{"--epochs", "3"})
	require.NoError(t, err)
	assert.Equal(t, uint64(202), result.JobId)

	assert.Contains(t, sched.script, `#BSUB -gpu "num=2:mode=exclusive_process"`)
	assert.Contains(t, sched.script, "#BSUB -q gpu_v100\n")
	assert.Contains(t, sched.script, "#BSUB -o run7.out\n")
	assert.Contains(t, sched.script, "#BSUB -e run7.err\n")
	assert.True(t, strings.HasSuffix(strings.TrimRight(sched.script, "\n"), "--epochs 3"))
}

func TestSubmitRemovesScript(t *testing.T) {
	cfg := testConfig(t)
	sched := &fakeScheduler{jobId: 5, queue: utils.DefaultQueue}
	submitter := NewSubmitter(cfg, sched, nil)

	_, err := submitter.Submit(context.Background(), submitter.NewJobSpec(), nil)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cfg.WorkDir, "finetune.sh"))
	assert.True(t, os.IsNotExist(err))
}

func TestSubmitRemovesScriptOnFailure(t *testing.T) {
	cfg := testConfig(t)
	sched := &fakeScheduler{submitErr: errors.New("bsub: queue rejected job")}
	submitter := NewSubmitter(cfg, sched, nil)

	_, err := submitter.Submit(context.Background(), submitter.NewJobSpec(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue rejected job")

	// The temp script is gone even though submission failed.
	_, err = os.Stat(filepath.Join(cfg.WorkDir, "finetune.sh"))
	assert.True(t, os.IsNotExist(err))
}

func TestSubmitRejectsInvalidSpec(t *testing.T) {
	cfg := testConfig(t)
	cfg.GpuCount = 0
	sched := &fakeScheduler{}
	submitter := NewSubmitter(cfg, sched, nil)

	_, err := submitter.Submit(context.Background(), submitter.NewJobSpec(), nil)
	require.Error(t, err)
	assert.Empty(t, sched.script)
}

func TestSubmitRecordsHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.JobName = "run7"
	store, err := utils.NewSubmissionStore(filepath.Join(t.TempDir(), "submissions.json"))
	require.NoError(t, err)
	sched := &fakeScheduler{jobId: 7, queue: utils.DefaultQueue}
	submitter := NewSubmitter(cfg, sched, store)

	_, err = submitter.Submit(context.Background(), submitter.NewJobSpec(), nil)
	require.NoError(t, err)

	record, err := store.Query(7)
	require.NoError(t, err)
	assert.Equal(t, "run7", record.JobName)
	assert.Equal(t, utils.DefaultQueue, record.Queue)
}

func TestCancel(t *testing.T) {
	cfg := testConfig(t)
	store, err := utils.NewSubmissionStore(filepath.Join(t.TempDir(), "submissions.json"))
	require.NoError(t, err)
	require.NoError(t, store.Save(&utils.SubmissionRecord{JobId: 9, JobName: "x"}))

	sched := &fakeScheduler{}
	submitter := NewSubmitter(cfg, sched, store)
	require.NoError(t, submitter.Cancel(context.Background(), 9))

	assert.Equal(t, []uint64{9}, sched.killed)
	_, err = store.Query(9)
	assert.Error(t, err)
}
