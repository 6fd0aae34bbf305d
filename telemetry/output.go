package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/ecosysx/terrarium/speciation"
)

// SpeciationEventRow is the CSV projection of a speciation event.
type SpeciationEventRow struct {
	Tick                 int64   `csv:"tick"`
	EventID              string  `csv:"event_id"`
	Mechanism            string  `csv:"mechanism"`
	ParentPopulationID   string  `csv:"parent_population"`
	ParentLineageID      string  `csv:"parent_lineage"`
	NewPopulationID      string  `csv:"new_population"`
	NewLineageID         string  `csv:"new_lineage"`
	FounderGenomes       string  `csv:"founder_genomes"`
	GeneticDistance      float64 `csv:"genetic_distance"`
	PopulationDivergence float64 `csv:"population_divergence"`
	SpatialSeparation    float64 `csv:"spatial_separation"`
}

// NewSpeciationEventRow flattens an event for CSV output.
func NewSpeciationEventRow(ev speciation.SpeciationEvent) SpeciationEventRow {
	return SpeciationEventRow{
		Tick:                 ev.Tick,
		EventID:              ev.ID,
		Mechanism:            ev.Mechanism,
		ParentPopulationID:   ev.ParentPopulationID,
		ParentLineageID:      ev.ParentLineageID,
		NewPopulationID:      ev.NewPopulationID,
		NewLineageID:         ev.NewLineageID,
		FounderGenomes:       strings.Join(ev.FounderGenomeIDs, ";"),
		GeneticDistance:      ev.GeneticDistance,
		PopulationDivergence: ev.PopulationDivergence,
		SpatialSeparation:    ev.SpatialSeparation,
	}
}

// OutputManager handles structured experiment output with CSV logging.
// A nil OutputManager is valid and discards everything.
type OutputManager struct {
	dir        string
	statsFile  *os.File
	eventsFile *os.File

	statsHeaderWritten  bool
	eventsHeaderWritten bool
}

// NewOutputManager creates an output manager rooted at dir. Returns nil
// if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	om.statsFile = f

	f, err = os.Create(filepath.Join(dir, "events.csv"))
	if err != nil {
		om.statsFile.Close()
		return nil, fmt.Errorf("creating events.csv: %w", err)
	}
	om.eventsFile = f

	return om, nil
}

// WriteStats appends a window stats record to telemetry.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}

	records := []WindowStats{stats}
	if !om.statsHeaderWritten {
		if err := gocsv.Marshal(records, om.statsFile); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		om.statsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.statsFile); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WriteEvents appends speciation events to events.csv.
func (om *OutputManager) WriteEvents(events []speciation.SpeciationEvent) error {
	if om == nil || len(events) == 0 {
		return nil
	}

	rows := make([]SpeciationEventRow, len(events))
	for i, ev := range events {
		rows[i] = NewSpeciationEventRow(ev)
	}

	if !om.eventsHeaderWritten {
		if err := gocsv.Marshal(rows, om.eventsFile); err != nil {
			return fmt.Errorf("writing events: %w", err)
		}
		om.eventsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, om.eventsFile); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if om.statsFile != nil {
		if err := om.statsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.eventsFile != nil {
		if err := om.eventsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
