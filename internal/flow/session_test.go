package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/swingerman/dual-thermostat-config/internal/models"
	"github.com/swingerman/dual-thermostat-config/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	return NewEngine(st), st
}

func submit(t *testing.T, eng *Engine, sessionID string, step models.StepID, raw map[string]any) StepResult {
	t.Helper()
	res, err := eng.SubmitStep(context.Background(), sessionID, step, raw)
	if err != nil {
		t.Fatalf("SubmitStep(%s) failed: %v", step, err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("SubmitStep(%s) rejected: %v", step, res.Errors)
	}
	return res
}

func TestCreateFlowACOnlyWithFan(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	session, res, err := eng.StartCreate(ctx)
	if err != nil {
		t.Fatalf("StartCreate failed: %v", err)
	}
	if res.Step != models.StepSystemType {
		t.Fatalf("expected system_type first, got %s", res.Step)
	}

	res = submit(t, eng, session.SessionID, models.StepSystemType,
		map[string]any{models.ConfigKeySystemType: "ac_only"})
	if res.Step != models.StepBasicACOnly {
		t.Fatalf("expected basic_ac_only, got %s", res.Step)
	}

	res = submit(t, eng, session.SessionID, models.StepBasicACOnly, map[string]any{
		models.ConfigKeyName:              "Bedroom",
		models.ConfigKeyTemperatureSensor: "sensor.bedroom",
		models.ConfigKeyCooler:            "switch.bedroom_ac",
	})
	if res.Step != models.StepFeatures {
		t.Fatalf("expected features, got %s", res.Step)
	}

	res = submit(t, eng, session.SessionID, models.StepFeatures,
		map[string]any{models.ToggleKey(models.FeatureFan): true})
	if res.Step != models.StepFan {
		t.Fatalf("expected fan, got %s", res.Step)
	}

	res = submit(t, eng, session.SessionID, models.StepFan,
		map[string]any{models.ConfigKeyFan: "switch.bedroom_fan"})
	if res.Outcome != OutcomeCommit {
		t.Fatalf("expected commit, got %s at %s", res.Outcome, res.Step)
	}
	if res.EntryID == "" {
		t.Fatal("commit returned no entry id")
	}

	rec, err := st.GetRecord(res.EntryID)
	if err != nil || rec == nil {
		t.Fatalf("committed record not found: %v", err)
	}
	if rec.Base[models.ConfigKeyFan] != "switch.bedroom_fan" {
		t.Errorf("fan not persisted: %v", rec.Base)
	}
	for key := range rec.Base {
		if models.IsTransientKey(key) {
			t.Errorf("transient key %s leaked into the committed record", key)
		}
	}

	// The finished session is gone.
	if _, err := eng.Resume(ctx, session.SessionID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after commit, got %v", err)
	}
}

func TestCreateFlowHeaterCoolerAllFeatures(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	session, res, err := eng.StartCreate(ctx)
	if err != nil {
		t.Fatalf("StartCreate failed: %v", err)
	}

	type submission struct {
		step models.StepID
		raw  map[string]any
	}
	lowAway, highAway := models.PresetTempRangeKeys("away")
	script := []submission{
		{models.StepSystemType, map[string]any{models.ConfigKeySystemType: "heater_cooler"}},
		{models.StepBasicHeaterCooler, map[string]any{
			models.ConfigKeyName:              "Living Room",
			models.ConfigKeyTemperatureSensor: "sensor.living_room",
			models.ConfigKeyHeater:            "switch.heater",
			models.ConfigKeyCooler:            "switch.cooler",
		}},
		{models.StepFeatures, map[string]any{
			models.ToggleKey(models.FeatureFloorHeating): true,
			models.ToggleKey(models.FeatureFan):          true,
			models.ToggleKey(models.FeatureHumidity):     true,
			models.ToggleKey(models.FeatureOpenings):     true,
			models.ToggleKey(models.FeaturePresets):      true,
		}},
		{models.StepFloorHeating, map[string]any{models.ConfigKeyFloorSensor: "sensor.floor"}},
		{models.StepFan, map[string]any{models.ConfigKeyFan: "switch.fan"}},
		{models.StepHumidity, map[string]any{models.ConfigKeyHumiditySensor: "sensor.humidity"}},
		{models.StepOpeningsSelection, map[string]any{
			models.ConfigKeySelectedOpenings: []any{"binary_sensor.front_door"},
		}},
		{models.StepOpeningsDetail, map[string]any{
			models.ConfigKeyOpenings: []any{
				map[string]any{"entity_id": "binary_sensor.front_door", "timeout_open": 30.0},
			},
		}},
		{models.StepPresetsSelection, map[string]any{
			models.ConfigKeySelectedPresets: []any{"away"},
		}},
		{models.StepPresetsDetail, map[string]any{lowAway: 16.0, highAway: 24.0}},
	}

	for i, sub := range script {
		if res.Step != sub.step {
			t.Fatalf("step %d: expected %s, got %s", i, sub.step, res.Step)
		}
		res = submit(t, eng, session.SessionID, sub.step, sub.raw)
	}

	if res.Outcome != OutcomeCommit {
		t.Fatalf("expected commit, got %s at %s", res.Outcome, res.Step)
	}

	rec, err := st.GetRecord(res.EntryID)
	if err != nil || rec == nil {
		t.Fatalf("committed record not found: %v", err)
	}
	for _, key := range []string{
		models.ConfigKeyFloorSensor, models.ConfigKeyFan, models.ConfigKeyHumiditySensor,
		models.ConfigKeyOpenings, models.ConfigKeySelectedPresets, lowAway, highAway,
	} {
		if _, ok := rec.Base[key]; !ok {
			t.Errorf("expected %s in committed record", key)
		}
	}
}

func TestEditFlowPrefillsStoredValues(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	seedRecord(t, st, "entry-1", map[string]any{
		models.ConfigKeySystemType:        "simple_heater",
		models.ConfigKeyName:              "Office",
		models.ConfigKeyTemperatureSensor: "sensor.office",
		models.ConfigKeyHeater:            "switch.office_heater",
		models.ConfigKeyColdTolerance:     0.8,
	})

	_, res, err := eng.StartEdit(ctx, "entry-1")
	if err != nil {
		t.Fatalf("StartEdit failed: %v", err)
	}
	if res.Step != models.StepBasicSimpleHeater {
		t.Fatalf("edit must skip system type, got %s", res.Step)
	}
	f, ok := res.Schema.Find(models.ConfigKeyColdTolerance)
	if !ok {
		t.Fatal("cold_tolerance field missing")
	}
	if f.Default != 0.8 {
		t.Errorf("expected stored 0.8 as default, got %v", f.Default)
	}
}

func TestEditFlowCommitsOverlayDiff(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	seedRecord(t, st, "entry-2", map[string]any{
		models.ConfigKeySystemType:        "simple_heater",
		models.ConfigKeyName:              "Office",
		models.ConfigKeyTemperatureSensor: "sensor.office",
		models.ConfigKeyHeater:            "switch.office_heater",
		models.ConfigKeyColdTolerance:     0.3,
	})

	session, res, err := eng.StartEdit(ctx, "entry-2")
	if err != nil {
		t.Fatalf("StartEdit failed: %v", err)
	}
	res = submit(t, eng, session.SessionID, res.Step,
		map[string]any{models.ConfigKeyColdTolerance: 0.9})
	res = submit(t, eng, session.SessionID, models.StepFeatures, map[string]any{})
	if res.Outcome != OutcomeCommit {
		t.Fatalf("expected commit, got %s at %s", res.Outcome, res.Step)
	}

	rec, err := st.GetRecord("entry-2")
	if err != nil || rec == nil {
		t.Fatalf("record not found: %v", err)
	}
	if rec.Base[models.ConfigKeyColdTolerance] != 0.3 {
		t.Error("edit must not rewrite the base layer")
	}
	if rec.Overlay[models.ConfigKeyColdTolerance] != 0.9 {
		t.Errorf("overlay missing changed value: %v", rec.Overlay)
	}
	if _, ok := rec.Overlay[models.ConfigKeyName]; ok {
		t.Error("unchanged key must not appear in the overlay")
	}
	view := CurrentView(rec.Base, rec.Overlay)
	if view[models.ConfigKeyColdTolerance] != 0.9 {
		t.Error("merged view does not reflect the edit")
	}
}

func TestEditFlowTombstonesRemovedFeature(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	seedRecord(t, st, "entry-3", map[string]any{
		models.ConfigKeySystemType:        "simple_heater",
		models.ConfigKeyName:              "Attic",
		models.ConfigKeyTemperatureSensor: "sensor.attic",
		models.ConfigKeyHeater:            "switch.attic_heater",
		models.ConfigKeySelectedPresets:   []string{"away"},
		models.PresetTempKey("away"):      18.0,
	})

	session, res, err := eng.StartEdit(ctx, "entry-3")
	if err != nil {
		t.Fatalf("StartEdit failed: %v", err)
	}
	res = submit(t, eng, session.SessionID, res.Step, map[string]any{})
	if res.Step != models.StepFeatures {
		t.Fatalf("expected features, got %s", res.Step)
	}
	// Presets toggle must be prefilled from the stored preset data.
	toggle, ok := res.Schema.Find(models.ToggleKey(models.FeaturePresets))
	if !ok || toggle.Default != true {
		t.Fatalf("presets toggle not prefilled: %+v", toggle)
	}

	res = submit(t, eng, session.SessionID, models.StepFeatures,
		map[string]any{models.ToggleKey(models.FeaturePresets): false})
	if res.Outcome != OutcomeCommit {
		t.Fatalf("expected commit, got %s at %s", res.Outcome, res.Step)
	}

	rec, err := st.GetRecord("entry-3")
	if err != nil || rec == nil {
		t.Fatalf("record not found: %v", err)
	}
	for _, key := range []string{models.ConfigKeySelectedPresets, models.PresetTempKey("away")} {
		v, ok := rec.Overlay[key]
		if !ok || v != nil {
			t.Errorf("expected nil tombstone for %s, got %v (present=%v)", key, v, ok)
		}
	}
	view := CurrentView(rec.Base, rec.Overlay)
	if _, ok := view[models.PresetTempKey("away")]; ok {
		t.Error("removed preset temperature still visible in merged view")
	}
}

func TestReconfigureFlowSystemTypeChangeCascades(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	seedRecord(t, st, "entry-4", map[string]any{
		models.ConfigKeySystemType:            "heat_pump",
		models.ConfigKeyName:                  "Cabin",
		models.ConfigKeyTemperatureSensor:     "sensor.cabin",
		models.ConfigKeyHeater:                "switch.pump",
		models.ConfigKeyHeatPumpCoolingSensor: "sensor.pump_mode",
		models.ConfigKeyFloorSensor:           "sensor.floor",
		models.ConfigKeyMinFloorTemp:          5.0,
	})

	session, res, err := eng.StartReconfigure(ctx, "entry-4")
	if err != nil {
		t.Fatalf("StartReconfigure failed: %v", err)
	}
	if res.Step != models.StepSystemType {
		t.Fatalf("reconfigure must re-offer system type, got %s", res.Step)
	}

	res = submit(t, eng, session.SessionID, models.StepSystemType,
		map[string]any{models.ConfigKeySystemType: "simple_heater"})
	if res.Step != models.StepBasicSimpleHeater {
		t.Fatalf("expected basic_simple_heater after change, got %s", res.Step)
	}

	// Required core fields carried over from the old record stand when the
	// form re-submits nothing.
	res = submit(t, eng, session.SessionID, models.StepBasicSimpleHeater, map[string]any{})
	if res.Step != models.StepFeatures {
		t.Fatalf("expected features, got %s", res.Step)
	}
	res = submit(t, eng, session.SessionID, models.StepFeatures, map[string]any{})
	if res.Outcome != OutcomeCommit {
		t.Fatalf("expected commit, got %s at %s", res.Outcome, res.Step)
	}

	rec, err := st.GetRecord("entry-4")
	if err != nil || rec == nil {
		t.Fatalf("record not found: %v", err)
	}
	if rec.Base[models.ConfigKeySystemType] != "simple_heater" {
		t.Errorf("system type not replaced: %v", rec.Base[models.ConfigKeySystemType])
	}
	if rec.Base[models.ConfigKeyHeater] != "switch.pump" {
		t.Error("shared core field lost across the change")
	}
	for _, key := range []string{
		models.ConfigKeyHeatPumpCoolingSensor, models.ConfigKeyFloorSensor,
		models.ConfigKeyMinFloorTemp, models.TransientKeySystemTypeChanged,
	} {
		if _, ok := rec.Base[key]; ok {
			t.Errorf("expected %s to be absent after cascade, got %v", key, rec.Base[key])
		}
	}
	if rec.Overlay != nil {
		t.Error("reconfigure must clear the overlay")
	}
}

func TestSubmitStepRejectsWrongStep(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	session, _, err := eng.StartCreate(ctx)
	if err != nil {
		t.Fatalf("StartCreate failed: %v", err)
	}
	_, err = eng.SubmitStep(ctx, session.SessionID, models.StepFan,
		map[string]any{models.ConfigKeyFan: "switch.fan"})
	if !errors.Is(err, models.ErrUnexpectedStep) {
		t.Errorf("expected ErrUnexpectedStep, got %v", err)
	}
}

func TestSubmitStepValidationKeepsSessionInPlace(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	session, _, err := eng.StartCreate(ctx)
	if err != nil {
		t.Fatalf("StartCreate failed: %v", err)
	}
	res, err := eng.SubmitStep(ctx, session.SessionID, models.StepSystemType,
		map[string]any{models.ConfigKeySystemType: "nuclear_reactor"})
	if err != nil {
		t.Fatalf("SubmitStep failed: %v", err)
	}
	if res.Step != models.StepSystemType {
		t.Errorf("rejected submission must re-show the same step, got %s", res.Step)
	}
	if len(res.Errors) == 0 {
		t.Error("expected field errors")
	}

	// The session still accepts a valid retry of the same step.
	res = submit(t, eng, session.SessionID, models.StepSystemType,
		map[string]any{models.ConfigKeySystemType: "ac_only"})
	if res.Step != models.StepBasicACOnly {
		t.Errorf("expected basic_ac_only after retry, got %s", res.Step)
	}
}

func TestResumeReturnsCurrentStep(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	session, _, err := eng.StartCreate(ctx)
	if err != nil {
		t.Fatalf("StartCreate failed: %v", err)
	}
	submit(t, eng, session.SessionID, models.StepSystemType,
		map[string]any{models.ConfigKeySystemType: "simple_heater"})

	res, err := eng.Resume(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if res.Step != models.StepBasicSimpleHeater {
		t.Errorf("expected resumed step basic_simple_heater, got %s", res.Step)
	}
}

func TestAbortDiscardsSession(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	session, _, err := eng.StartCreate(ctx)
	if err != nil {
		t.Fatalf("StartCreate failed: %v", err)
	}
	res, err := eng.Abort(ctx, session.SessionID, "user closed the dialog")
	if err != nil {
		t.Fatalf("Abort failed: %v", err)
	}
	if res.Outcome != OutcomeAbort || res.Step != models.StepAborted {
		t.Errorf("unexpected abort result: %+v", res)
	}
	if _, err := eng.Resume(ctx, session.SessionID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after abort, got %v", err)
	}
}

func TestStartEditUnknownRecord(t *testing.T) {
	eng, _ := newTestEngine(t)
	_, _, err := eng.StartEdit(context.Background(), "missing")
	if !errors.Is(err, models.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

// failingStore wraps the in-memory store and fails record saves on demand,
// simulating a storage outage at commit time.
type failingStore struct {
	*store.InMemoryStore
	failSaves bool
}

func (f *failingStore) SaveRecord(rec models.ConfigRecord) error {
	if f.failSaves {
		return errors.New("disk full")
	}
	return f.InMemoryStore.SaveRecord(rec)
}

func TestCommitFailurePreservesSessionForRetry(t *testing.T) {
	fs := &failingStore{InMemoryStore: store.NewInMemoryStore(), failSaves: true}
	eng := NewEngine(fs)
	ctx := context.Background()

	session, _, err := eng.StartCreate(ctx)
	if err != nil {
		t.Fatalf("StartCreate failed: %v", err)
	}
	submit(t, eng, session.SessionID, models.StepSystemType,
		map[string]any{models.ConfigKeySystemType: "simple_heater"})
	submit(t, eng, session.SessionID, models.StepBasicSimpleHeater, map[string]any{
		models.ConfigKeyName:              "Hallway",
		models.ConfigKeyTemperatureSensor: "sensor.hallway",
		models.ConfigKeyHeater:            "switch.hallway_heater",
	})

	// The final step triggers the commit, which fails against the store.
	_, err = eng.SubmitStep(ctx, session.SessionID, models.StepFeatures, map[string]any{})
	if !errors.Is(err, models.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}

	// Nothing was lost: the same step retried after the outage commits.
	fs.failSaves = false
	res := submit(t, eng, session.SessionID, models.StepFeatures, map[string]any{})
	if res.Outcome != OutcomeCommit {
		t.Fatalf("expected commit on retry, got %s at %s", res.Outcome, res.Step)
	}
	rec, err := fs.GetRecord(res.EntryID)
	if err != nil || rec == nil {
		t.Fatalf("record not found after retry: %v", err)
	}
	if rec.Base[models.ConfigKeyHeater] != "switch.hallway_heater" {
		t.Errorf("collected values lost across the retry: %v", rec.Base)
	}
}

func seedRecord(t *testing.T, st store.Store, entryID string, base map[string]any) {
	t.Helper()
	if err := st.SaveRecord(models.ConfigRecord{EntryID: entryID, Base: base}); err != nil {
		t.Fatalf("seed record %s: %v", entryID, err)
	}
}
