package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// SubmissionRecord is one submitted job as remembered by the launcher.
// The scheduler remains the source of truth for job state; this is only
// the local history of what was handed to bsub.
type SubmissionRecord struct {
	JobId       uint64    `json:"job_id"`
	JobName     string    `json:"job_name"`
	Queue       string    `json:"queue"`
	GpuType     string    `json:"gpu_type"`
	GpuCount    int       `json:"gpu_count"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmissionStore persists submission records in a JSON array file.
// Writes go through a temp file plus rename so concurrent launcher runs
// cannot corrupt the history.
type SubmissionStore struct {
	filePath string
	mu       sync.RWMutex
}

func NewSubmissionStore(filePath string) (*SubmissionStore, error) {
	store := &SubmissionStore{filePath: filePath}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create parent dir %s failed: %w", dir, err)
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := os.WriteFile(filePath, []byte("[]"), 0644); err != nil {
			return nil, fmt.Errorf("create empty store %s failed: %w", filePath, err)
		}
		log.Debugf("created empty submission store: %s", filePath)
	} else if err != nil {
		return nil, fmt.Errorf("check store %s failed: %w", filePath, err)
	}

	return store, nil
}

// Save appends or overwrites the record with the same JobId.
func (s *SubmissionStore) Save(record *SubmissionRecord) error {
	if record == nil || record.JobId == 0 {
		return fmt.Errorf("invalid submission record: nil or jobId=0")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}

	found := false
	for i, existing := range records {
		if existing.JobId == record.JobId {
			records[i] = record
			found = true
			break
		}
	}
	if !found {
		records = append(records, record)
	}

	if err := s.write(records); err != nil {
		return err
	}
	log.Infof("recorded submission: jobId=%d, jobName=%s", record.JobId, record.JobName)
	return nil
}

// Delete removes the record for jobId.
func (s *SubmissionStore) Delete(jobId uint64) error {
	if jobId == 0 {
		return fmt.Errorf("invalid jobId: 0")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}

	kept := make([]*SubmissionRecord, 0, len(records))
	found := false
	for _, record := range records {
		if record.JobId != jobId {
			kept = append(kept, record)
		} else {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("jobId %d not found", jobId)
	}

	return s.write(kept)
}

// List returns all records, oldest first.
func (s *SubmissionStore) List() ([]*SubmissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read()
}

// Query returns the record for jobId.
func (s *SubmissionStore) Query(jobId uint64) (*SubmissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.read()
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.JobId == jobId {
			return record, nil
		}
	}
	return nil, fmt.Errorf("submission not found: jobId=%d", jobId)
}

func (s *SubmissionStore) read() ([]*SubmissionRecord, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("read store failed: %w", err)
	}
	var records []*SubmissionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal store failed: %w", err)
	}
	return records, nil
}

func (s *SubmissionStore) write(records []*SubmissionRecord) error {
	output, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store failed: %w", err)
	}
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, output, 0644); err != nil {
		return fmt.Errorf("write temp file failed: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("rename temp file failed: %w", err)
	}
	return nil
}
