package jobs

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/storage/object"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

const archiveTimeout = 30 * time.Second

// ArchiveKey is where a completed job's snapshot is written.
func ArchiveKey(job Job) string {
	return path.Join("analyses", job.UpdatedAt.UTC().Format("2006-01-02"), job.ID+".md")
}

// Snapshot renders a completed job as a standalone markdown document.
func Snapshot(job Job) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<!-- job: %s -->\n", job.ID)
	fmt.Fprintf(&b, "<!-- url: %s -->\n", job.URL)
	fmt.Fprintf(&b, "<!-- model: %s -->\n", job.Model)
	fmt.Fprintf(&b, "<!-- completed: %s -->\n\n", job.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))
	b.WriteString(job.Analysis)
	if n := b.Len(); n > 0 && b.Bytes()[n-1] != '\n' {
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// WithArchive makes the runner copy every completed analysis into store.
// Archive failures are logged and never change the job.
func (r *Runner) WithArchive(store object.Store) *Runner {
	r.archive = store
	return r
}

func (r *Runner) archiveJob(ctx context.Context, job Job) {
	if r.archive == nil || job.Status != StatusCompleted {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	key := ArchiveKey(job)
	n, err := r.archive.Put(actx, key, "text/markdown; charset=utf-8", bytes.NewReader(Snapshot(job)))
	if err != nil {
		telemetry.Error("job.archive_failed", map[string]any{"job_id": job.ID, "key": key, "error": err.Error()})
		return
	}
	telemetry.Info("job.archived", map[string]any{"job_id": job.ID, "key": key, "bytes": n})
}
