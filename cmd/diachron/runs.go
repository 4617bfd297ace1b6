package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/revelaction/diachron/analysis"
)

// runsCommand lists the stored runs or, given an id, renders one report.
func runsCommand(database, id, format string, color bool, ui UI) error {
	if err := checkFormat(format); err != nil {
		return err
	}

	if _, err := os.Stat(database); err != nil {
		return fmt.Errorf("report database not found: %s", database)
	}

	pool := &Pool{}
	defer pool.Close()

	reports, err := NewReportRepository(pool, database)
	if err != nil {
		return err
	}

	if id == "" {
		runs, err := reports.Runs()
		if err != nil {
			return err
		}

		for _, r := range runs {
			fmt.Fprintf(ui.Out, "📖 %s %s  seed %d  %d docs\n", r.Id, r.Created.Format("2006-01-02 15:04:05"), r.Seed, r.NumDocs)
		}
		return nil
	}

	payload, err := reports.Report(id)
	if err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}

	var report analysis.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return fmt.Errorf("JSON decoding error: %w", err)
	}

	return renderReport(&report, format, color, false, false, ui)
}
