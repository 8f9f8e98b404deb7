package cmd

import (
	"fmt"
	"io"

	"github.com/jmehdipour/group-load/internal/streamer"
	"github.com/labstack/gommon/color"
)

// printResults writes one line per record, in input order, followed by a
// summary and returns the number of failed records.
func printResults(w io.Writer, outcomes []streamer.Outcome) int {
	failed := 0
	for _, o := range outcomes {
		if o.OK() {
			fmt.Fprintf(w, "%s %s\n", color.Green("✓"), o.GroupID)
			continue
		}
		failed++
		fmt.Fprintf(w, "%s %s (%s)\n", color.Red("✗"), o.GroupID, o.Failure)
	}

	summary := fmt.Sprintf("%d/%d published", len(outcomes)-failed, len(outcomes))
	if failed > 0 {
		fmt.Fprintln(w, color.Yellow(summary))
	} else {
		fmt.Fprintln(w, color.Green(summary))
	}
	return failed
}

func batchErr(failed, total int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d records failed", failed, total)
}
