package job

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"lsf-finetune-launcher/pkg/lsf"
	"lsf-finetune-launcher/pkg/monitor"
	"lsf-finetune-launcher/pkg/utils"
)

// Scheduler is the part of the LSF client the submitter needs.
type Scheduler interface {
	Bsub(ctx context.Context, script string) (uint64, string, error)
	Bkill(ctx context.Context, jobId uint64) error
}

// SubmissionResult is what the scheduler reported back for a submitted
// job.
type SubmissionResult struct {
	JobId uint64
	Queue string
}

// Submitter renders a job description for one fine-tune run, writes it
// to <jobName>.sh in the work dir, hands it to bsub and removes the file
// again. The temporary script is gone after Submit returns on every
// path, including submission failure.
type Submitter struct {
	cfg     *utils.Config
	sched   Scheduler
	store   *utils.SubmissionStore
	builder *TrainCommandBuilder
}

func NewSubmitter(cfg *utils.Config, sched Scheduler, store *utils.SubmissionStore) *Submitter {
	return &Submitter{
		cfg:     cfg,
		sched:   sched,
		store:   store,
		builder: NewTrainCommandBuilder(cfg.Train),
	}
}

// NewJobSpec builds the job spec from the launcher config, resolving the
// queue from the GPU type.
func (s *Submitter) NewJobSpec() lsf.JobSpec {
	queue, known := s.cfg.QueueForGpuType(s.cfg.GpuType)
	if !known && s.cfg.GpuType != utils.DefaultGpuType {
		logrus.Warnf("unknown gpu type %q, falling back to queue %q", s.cfg.GpuType, queue)
	}
	return lsf.JobSpec{
		GpuType:  s.cfg.GpuType,
		GpuCount: s.cfg.GpuCount,
		JobName:  s.cfg.JobName,
		Queue:    queue,
	}
}

// Render returns the job description document without submitting it.
func (s *Submitter) Render(spec lsf.JobSpec, forwardedArgs []string) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", errors.Wrap(err, "invalid job spec")
	}
	return spec.Render(s.builder.Build(forwardedArgs)), nil
}

// Submit performs the write / bsub / delete sequence.
func (s *Submitter) Submit(ctx context.Context, spec lsf.JobSpec, forwardedArgs []string) (*SubmissionResult, error) {
	logrus.Infof("[Submit] job=%s gpuType=%s gpuCount=%d queue=%s",
		spec.JobName, spec.GpuType, spec.GpuCount, spec.Queue)

	document, err := s.Render(spec, forwardedArgs)
	if err != nil {
		return nil, err
	}

	scriptPath := filepath.Join(s.cfg.WorkDir, spec.ScriptName())
	// Overwrites any stale script of the same name, matching bsub's own
	// last-writer-wins handling of .out/.err files.
	if err := os.WriteFile(scriptPath, []byte(document), 0644); err != nil {
		return nil, errors.Wrapf(err, "write job script %s", scriptPath)
	}
	defer func() {
		if err := os.Remove(scriptPath); err != nil {
			logrus.Warnf("[Submit] remove job script failed: %v", err)
		}
	}()

	start := time.Now()
	jobId, queue, err := s.sched.Bsub(ctx, document)
	monitor.SubmissionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.recordMetrics(spec, "error")
		return nil, errors.Wrapf(err, "submit job %s", spec.JobName)
	}
	s.recordMetrics(spec, "ok")

	logrus.Infof("[Submit] submit job success: %d (queue %s)", jobId, queue)

	if s.store != nil {
		record := &utils.SubmissionRecord{
			JobId:       jobId,
			JobName:     spec.JobName,
			Queue:       queue,
			GpuType:     spec.GpuType,
			GpuCount:    spec.GpuCount,
			SubmittedAt: time.Now(),
		}
		if err := s.store.Save(record); err != nil {
			logrus.Warnf("[Submit] save submission record failed: %v", err)
		}
	}

	return &SubmissionResult{JobId: jobId, Queue: queue}, nil
}

// Cancel kills a job and drops it from the history store.
func (s *Submitter) Cancel(ctx context.Context, jobId uint64) error {
	logrus.Infof("[Cancel] jobId=%d", jobId)

	if err := s.sched.Bkill(ctx, jobId); err != nil {
		return errors.Wrapf(err, "cancel job %d", jobId)
	}
	if s.store != nil {
		if err := s.store.Delete(jobId); err != nil {
			logrus.Warnf("[Cancel] delete submission record failed: %v", err)
		}
	}
	return nil
}

// List returns the local submission history.
func (s *Submitter) List() ([]*utils.SubmissionRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List()
}

func (s *Submitter) recordMetrics(spec lsf.JobSpec, status string) {
	monitor.SubmissionsTotal.WithLabelValues(spec.Queue, status).Inc()
	monitor.GpusRequested.WithLabelValues(spec.GpuType).Set(float64(spec.GpuCount))

	if s.cfg.Monitor.TextfilePath == "" {
		return
	}
	if err := monitor.WriteTextfile(s.cfg.Monitor.TextfilePath); err != nil {
		logrus.Warnf("write metrics textfile failed: %v", err)
	}
}
