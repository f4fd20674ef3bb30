package lsf

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/execabs"
)

const (
	bsubBinaryName  = "bsub"
	bkillBinaryName = "bkill"
	bjobsBinaryName = "bjobs"
)

// ErrInvalidBsubResponse is returned when bsub output cannot be parsed.
var ErrInvalidBsubResponse = errors.New("unable to parse bsub response")

// bsub prints "Job <123> is submitted to queue <gpu>." on success.
var bsubSubmitRE = regexp.MustCompile(`Job <(\d+)> is submitted to (?:default )?queue <([^>]+)>`)

// Client talks to a local LSF cluster by calling its binaries directly.
type Client struct{}

// NewClient returns a client after verifying that the LSF binaries are
// on PATH.
func NewClient() (*Client, error) {
	var missing []string
	for _, bin := range []string{
		bsubBinaryName,
		bkillBinaryName,
		bjobsBinaryName,
	} {
		_, err := execabs.LookPath(bin)
		if err != nil {
			missing = append(missing, bin)
		}
	}
	if len(missing) != 0 {
		return nil, errors.Errorf("no LSF binaries found: %s", strings.Join(missing, ", "))
	}
	return &Client{}, nil
}

// Bsub submits a job description via stdin and returns the job id and
// the queue the scheduler placed it in.
func (*Client) Bsub(ctx context.Context, script string) (uint64, string, error) {
	cmd := exec.CommandContext(ctx, bsubBinaryName)
	cmd.Stdin = bytes.NewBufferString(script)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, "", errors.Wrapf(err, "failed to execute bsub: %s", strings.TrimSpace(string(out)))
	}

	jobId, queue, err := parseBsubOutput(string(out))
	if err != nil {
		return 0, "", err
	}
	return jobId, queue, nil
}

func parseBsubOutput(out string) (uint64, string, error) {
	m := bsubSubmitRE.FindStringSubmatch(out)
	if len(m) != 3 {
		return 0, "", errors.Wrap(ErrInvalidBsubResponse, strings.TrimSpace(out))
	}
	jobId, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, "", errors.Wrap(ErrInvalidBsubResponse, m[1])
	}
	return jobId, m[2], nil
}

// Bkill cancels a submitted job.
func (*Client) Bkill(ctx context.Context, jobId uint64) error {
	cmd := exec.CommandContext(ctx, bkillBinaryName, strconv.FormatUint(jobId, 10))

	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "failed to execute bkill: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// JobStatus is one row of bjobs output.
type JobStatus struct {
	JobId uint64
	State string
	Queue string
	Name  string
}

// Bjobs reports the scheduler state of the given jobs, or of all the
// caller's jobs when none are given.
func (*Client) Bjobs(ctx context.Context, jobIds ...uint64) ([]JobStatus, error) {
	args := []string{"-noheader", "-o", "jobid stat queue job_name delimiter=','"}
	for _, id := range jobIds {
		args = append(args, strconv.FormatUint(id, 10))
	}
	cmd := exec.CommandContext(ctx, bjobsBinaryName, args...)

	out, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute bjobs")
	}

	return parseBjobsOutput(string(out)), nil
}

func parseBjobsOutput(out string) []JobStatus {
	var statuses []JobStatus
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, ",", 4)
		if len(fields) != 4 {
			continue
		}
		jobId, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		statuses = append(statuses, JobStatus{
			JobId: jobId,
			State: fields[1],
			Queue: fields[2],
			Name:  fields[3],
		})
	}
	return statuses
}
