package migrator

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
)

// RecordFailure describes one record that could not be migrated
type RecordFailure struct {
	Entity   string `json:"entity"`
	RecordID string `json:"record_id"`
	Kind     string `json:"kind"`
	Reason   string `json:"reason"`
}

// EntityResult holds the outcome counters of one entity.
// Attempted == Inserted + Skipped + Failed.
type EntityResult struct {
	Entity    string          `json:"entity"`
	Attempted int             `json:"attempted"`
	Inserted  int             `json:"inserted"`
	Skipped   int             `json:"skipped"`
	Failed    int             `json:"failed"`
	Failures  []RecordFailure `json:"failures,omitempty"`
	// ReadError is set when the source table could not be read
	ReadError error         `json:"-"`
	Cancelled bool          `json:"cancelled,omitempty"`
	Duration  time.Duration `json:"-"`
}

func (r *EntityResult) record(o recordOutcome) {
	r.Attempted++
	switch {
	case o.failure != nil:
		r.Failed++
		r.Failures = append(r.Failures, *o.failure)
	case o.inserted:
		r.Inserted++
	default:
		r.Skipped++
	}
}

func (r *EntityResult) status() string {
	switch {
	case r.ReadError != nil:
		return "read error"
	case r.Cancelled:
		return "cancelled"
	case r.Failed > 0:
		return "partial"
	default:
		return "ok"
	}
}

// Report is the outcome of one migration run
type Report struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Fatal        error
	Entities     []EntityResult
	Verification []Verification
	Cancelled    bool
}

// NewReport starts a report for a fresh run
func NewReport() *Report {
	return &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the end of the run
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// Entity returns the result for one entity
func (r *Report) Entity(name string) (EntityResult, bool) {
	for _, e := range r.Entities {
		if e.Entity == name {
			return e, true
		}
	}
	return EntityResult{}, false
}

// Failures returns every per-record failure across entities
func (r *Report) Failures() []RecordFailure {
	var failures []RecordFailure
	for _, e := range r.Entities {
		failures = append(failures, e.Failures...)
	}
	return failures
}

// Totals sums the counters of every entity
func (r *Report) Totals() EntityResult {
	total := EntityResult{Entity: "total"}
	for _, e := range r.Entities {
		total.Attempted += e.Attempted
		total.Inserted += e.Inserted
		total.Skipped += e.Skipped
		total.Failed += e.Failed
	}
	return total
}

// ExitCode is 1 when the run aborted or an entity could not be read. Record
// level failures alone keep the exit code at 0; they are listed in the report.
func (r *Report) ExitCode() int {
	if r.Fatal != nil {
		return 1
	}
	for _, e := range r.Entities {
		if e.ReadError != nil {
			return 1
		}
	}
	return 0
}

// WriteSummary prints the human readable run summary
func (r *Report) WriteSummary(w io.Writer) error {
	var b strings.Builder

	if r.Fatal != nil {
		fmt.Fprintf(&b, "MIGRATION FAILED: %v\n\n", r.Fatal)
	}

	fmt.Fprintf(&b, "Migration run %s\n", r.RunID)
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	if r.Cancelled {
		b.WriteString("Run was cancelled; counts below are partial.\n")
	}
	b.WriteString("\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tATTEMPTED\tINSERTED\tSKIPPED\tFAILED\tSTATUS")
	for _, e := range r.Entities {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n", e.Entity, e.Attempted, e.Inserted, e.Skipped, e.Failed, e.status())
	}
	total := r.Totals()
	fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", total.Entity, total.Attempted, total.Inserted, total.Skipped, total.Failed)
	tw.Flush()

	for _, e := range r.Entities {
		if e.ReadError != nil {
			fmt.Fprintf(&b, "\n%s could not be read: %v\n", e.Entity, e.ReadError)
		}
	}

	if failures := r.Failures(); len(failures) > 0 {
		b.WriteString("\nFailed records:\n")
		tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, f := range failures {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", f.Entity, f.RecordID, f.Kind, f.Reason)
		}
		tw.Flush()
	}

	if len(r.Verification) > 0 {
		b.WriteString("\nVerification (source vs target):\n")
		tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ENTITY\tSOURCE\tTARGET\tMATCH\tNOTE")
		for _, v := range r.Verification {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%t\t%s\n", v.Entity, v.SourceCount, v.TargetCount, v.Match, v.Note)
		}
		tw.Flush()
	}

	b.WriteString("\n")
	b.WriteString(r.nextSteps())

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Report) nextSteps() string {
	switch {
	case r.Fatal != nil:
		return "Nothing was migrated. Fix the error above and run again.\n"
	case r.Cancelled:
		return "Run again to finish; records already written are skipped.\n"
	case r.ExitCode() != 0 || r.Totals().Failed > 0:
		return "Fix the failed records or tables listed above, then run again for the affected entities.\n"
	default:
		return "Next steps:\n" +
			"  1. Point the backend at the new database (DATABASE_URL).\n" +
			"  2. Restart the server and check the application logs.\n" +
			"  3. Keep the SQLite file as a backup until the cutover is confirmed.\n"
	}
}

type entityJSON struct {
	EntityResult
	ReadError  string `json:"read_error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type verificationJSON struct {
	Verification
	Error string `json:"error,omitempty"`
}

type reportJSON struct {
	RunID        string             `json:"run_id"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   time.Time          `json:"finished_at"`
	Fatal        string             `json:"fatal,omitempty"`
	Cancelled    bool               `json:"cancelled"`
	ExitCode     int                `json:"exit_code"`
	Entities     []entityJSON       `json:"entities"`
	Verification []verificationJSON `json:"verification"`
}

// WriteJSON writes the machine readable report used for targeted retries
func (r *Report) WriteJSON(w io.Writer) error {
	out := reportJSON{
		RunID:        r.RunID,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		Cancelled:    r.Cancelled,
		ExitCode:     r.ExitCode(),
		Entities:     make([]entityJSON, 0, len(r.Entities)),
		Verification: make([]verificationJSON, 0, len(r.Verification)),
	}
	if r.Fatal != nil {
		out.Fatal = r.Fatal.Error()
	}
	for _, e := range r.Entities {
		ej := entityJSON{EntityResult: e, DurationMS: e.Duration.Milliseconds()}
		if e.ReadError != nil {
			ej.ReadError = e.ReadError.Error()
		}
		out.Entities = append(out.Entities, ej)
	}
	for _, v := range r.Verification {
		vj := verificationJSON{Verification: v}
		if v.Err != nil {
			vj.Error = v.Err.Error()
		}
		out.Verification = append(out.Verification, vj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
