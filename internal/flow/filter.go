package flow

import "github.com/swingerman/dual-thermostat-config/internal/models"

// ToRecord strips flow-control bookkeeping from the working state and
// returns the remainder as the record to persist. Toggle echoes and the
// system-type-changed cascade marker are the only in-band transient keys;
// step-visited markers live in the separate Visited set and can never reach
// the state in the first place. Filtering an already-filtered record is a
// no-op, and the same filter runs for every entry point.
func ToRecord(ws WorkingState) map[string]any {
	record := make(map[string]any, len(ws))
	for k, v := range ws {
		if models.IsTransientKey(k) {
			continue
		}
		record[k] = v
	}
	return record
}
