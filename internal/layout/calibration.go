package layout

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/signalgrid/nodescope/internal/geom"
)

// Calibration maps channel indices to explicit base positions, overriding
// the procedural layout wherever an index is present. Indices missing
// from the table keep their procedural placement.
type Calibration map[int]geom.Vec3

// LoadCalibration reads a table of index,x,y,z rows. An optional header
// row whose first field is "index" is skipped. Malformed rows and rows
// with a negative index are skipped and counted, never fatal.
//
// The file's axes follow the capture convention where Z is up; render
// space is Y-up, so the file's Z becomes render Y and the file's Y
// becomes render Z. The remap is fixed, not configurable.
func LoadCalibration(path string) (Calibration, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening calibration table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("reading calibration table: %w", err)
	}

	cal := make(Calibration)
	var skipped int
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "index") {
			continue
		}
		idx, pos, ok := parseCalibrationRow(row)
		if !ok {
			skipped++
			continue
		}
		cal[idx] = pos
	}
	return cal, skipped, nil
}

// Coverage reports how many of the first count channel indices the table
// covers, and how many entries address indices at or beyond count.
func (c Calibration) Coverage(count int) (covered, beyond int) {
	for idx := range c {
		if idx < count {
			covered++
		} else {
			beyond++
		}
	}
	return covered, beyond
}

func parseCalibrationRow(row []string) (int, geom.Vec3, bool) {
	if len(row) < 4 {
		return 0, geom.Vec3{}, false
	}

	idx, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil || idx < 0 {
		return 0, geom.Vec3{}, false
	}

	var coords [3]float64
	for i := range coords {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return 0, geom.Vec3{}, false
		}
		coords[i] = v
	}

	// File axes are (x, y, z) with z up; swap into Y-up render space.
	return idx, geom.Vec3{X: coords[0], Y: coords[2], Z: coords[1]}, true
}
