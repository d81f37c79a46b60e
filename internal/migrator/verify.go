package migrator

import (
	"context"
	"fmt"
	"strings"
)

// Verification compares the source and target row counts of one entity
type Verification struct {
	Entity      string `json:"entity"`
	SourceCount int64  `json:"source_count"`
	TargetCount int64  `json:"target_count"`
	// Baseline is the target count before the run started
	Baseline int64  `json:"baseline"`
	Match    bool   `json:"match"`
	Note     string `json:"note,omitempty"`
	Err      error  `json:"-"`
}

// Verify counts every entity in both stores. A mismatch is reported, never
// fatal. baseline may be nil; when given, rows that already existed in the
// target before the run are called out so a larger target is explained.
func Verify(ctx context.Context, source, target Counter, entities []string, baseline map[string]int64) []Verification {
	results := make([]Verification, 0, len(entities))
	for _, entity := range entities {
		v := Verification{Entity: entity, Baseline: baseline[entity]}

		sourceCount, err := source.Count(ctx, entity)
		if err != nil {
			v.Err = err
			v.Note = fmt.Sprintf("source count failed: %v", err)
			results = append(results, v)
			continue
		}
		v.SourceCount = sourceCount

		targetCount, err := target.Count(ctx, entity)
		if err != nil {
			v.Err = err
			v.Note = fmt.Sprintf("target count failed: %v", err)
			results = append(results, v)
			continue
		}
		v.TargetCount = targetCount

		v.Match = sourceCount == targetCount
		v.Note = verificationNote(v)
		results = append(results, v)
	}
	return results
}

func verificationNote(v Verification) string {
	var notes []string
	switch {
	case v.TargetCount < v.SourceCount:
		notes = append(notes, fmt.Sprintf("target is missing %d rows", v.SourceCount-v.TargetCount))
	case v.TargetCount > v.SourceCount:
		notes = append(notes, fmt.Sprintf("target has %d rows not in source", v.TargetCount-v.SourceCount))
	}
	if v.Baseline > 0 {
		notes = append(notes, fmt.Sprintf("%d rows were in the target before this run", v.Baseline))
	}
	return strings.Join(notes, "; ")
}
