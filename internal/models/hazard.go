package models

// deepDiveHazard maps deep-dive overlay hazard ids to their effective
// difficulty. Overlay ids are assigned post-ingest by the log parser when it
// pairs chronologically adjacent deep-dive stages.
var deepDiveHazard = map[int16]float64{
	100: 3.0,
	101: 3.5,
	102: 3.5,
	103: 4.5,
	104: 5.0,
	105: 5.5,
}

// HazardValue converts a stored hazard id into the real difficulty value.
// Plain hazards 1..6 map to themselves; deep-dive overlays use the fixed
// table. Unknown ids return (0, false).
func HazardValue(hazardID int16) (float64, bool) {
	if hazardID >= 1 && hazardID <= 6 {
		return float64(hazardID), true
	}
	v, ok := deepDiveHazard[hazardID]
	return v, ok
}
