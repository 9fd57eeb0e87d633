package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	app "github.com/diwise/iot-observations/internal/app/observations"
	"github.com/google/uuid"
)

func newDb() (*Db, context.Context, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := New(ctx, LoadConfiguration(ctx, app.DefaultConfig()))
	return db, ctx, cancel, err
}

func TestCreateAndRetrieveEntity(t *testing.T) {
	db, ctx, cancel, err := newDb()
	defer cancel()

	if err != nil {
		t.Log("could not connect to database or create tables, will skip test")
		t.SkipNow()
	}

	id := uuid.NewString()
	thing := app.Thing{ID: id, Name: "soil probe 1", Tenant: "default"}
	data, _ := json.Marshal(thing)

	err = db.CreateEntity(ctx, app.EntityTypeThing, id, data, "default")
	if err != nil {
		t.Error(err)
	}

	b, err := db.RetrieveEntity(ctx, app.EntityTypeThing, id)
	if err != nil {
		t.Error(err)
	}

	stored := app.Thing{}
	if err := json.Unmarshal(b, &stored); err != nil {
		t.Error(err)
	}
	if stored.Name != "soil probe 1" {
		t.Errorf("expected stored name to survive the roundtrip, got [%s]", stored.Name)
	}
}

func TestRetrieveUnknownEntityIsNotFound(t *testing.T) {
	db, ctx, cancel, err := newDb()
	defer cancel()

	if err != nil {
		t.Log("could not connect to database or create tables, will skip test")
		t.SkipNow()
	}

	_, err = db.RetrieveEntity(ctx, app.EntityTypeThing, uuid.NewString())
	if !errors.Is(err, app.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryEntitiesScopedByTenant(t *testing.T) {
	db, ctx, cancel, err := newDb()
	defer cancel()

	if err != nil {
		t.Log("could not connect to database or create tables, will skip test")
		t.SkipNow()
	}

	id := uuid.NewString()
	thing := app.Thing{ID: id, Name: "scoped probe", Tenant: "tenant-a"}
	data, _ := json.Marshal(thing)

	if err := db.CreateEntity(ctx, app.EntityTypeThing, id, data, "tenant-a"); err != nil {
		t.Error(err)
	}

	result, err := db.QueryEntities(ctx, app.EntityTypeThing, app.WithID(id), app.WithTenants([]string{"tenant-a"}))
	if err != nil {
		t.Error(err)
	}
	if len(result.Data) != 1 {
		t.Errorf("expected one entity within scope, got %d", len(result.Data))
	}

	result, err = db.QueryEntities(ctx, app.EntityTypeThing, app.WithID(id), app.WithTenants([]string{"tenant-b"}))
	if err != nil {
		t.Error(err)
	}
	if len(result.Data) != 0 {
		t.Errorf("expected no entities outside scope, got %d", len(result.Data))
	}
}

func TestGetOrCreateFeatureOfInterestIsIdempotent(t *testing.T) {
	db, ctx, cancel, err := newDb()
	defer cancel()

	if err != nil {
		t.Log("could not connect to database or create tables, will skip test")
		t.SkipNow()
	}

	f := app.FeatureOfInterest{
		ID:           uuid.NewString(),
		Name:         "east field",
		EncodingType: "application/geo+json",
		Tenant:       "default",
	}
	if err := json.Unmarshal([]byte(`{"type": "Point", "coordinates": [17.306868, 62.390715]}`), &f.Feature); err != nil {
		t.Error(err)
	}

	first, err := db.GetOrCreateFeatureOfInterest(ctx, f)
	if err != nil {
		t.Error(err)
	}

	f.ID = uuid.NewString()
	second, err := db.GetOrCreateFeatureOfInterest(ctx, f)
	if err != nil {
		t.Error(err)
	}

	if first != second {
		t.Errorf("expected the same feature for equal geometries, got [%s] and [%s]", first, second)
	}
}

func createTestDatastream(t *testing.T, ctx context.Context, db *Db) string {
	t.Helper()

	id := uuid.NewString()
	ds := app.Datastream{ID: id, Name: "test stream", Tenant: "default"}
	data, _ := json.Marshal(ds)

	if err := db.CreateEntity(ctx, app.EntityTypeDatastream, id, data, "default"); err != nil {
		t.Error(err)
	}
	return id
}

func TestInsertObservationDeduplicates(t *testing.T) {
	db, ctx, cancel, err := newDb()
	defer cancel()

	if err != nil {
		t.Log("could not connect to database or create tables, will skip test")
		t.SkipNow()
	}

	dsID := createTestDatastream(t, ctx, db)
	o := app.Observation{
		ID:             uuid.NewString(),
		DatastreamID:   dsID,
		PhenomenonTime: time.Now().UTC().Truncate(time.Second),
		Result:         app.NewNumberResult(20.1),
	}

	created, err := db.InsertObservation(ctx, o)
	if err != nil {
		t.Error(err)
	}
	if !created {
		t.Error("expected the first insert to create the observation")
	}

	o.ID = uuid.NewString()
	created, err = db.InsertObservation(ctx, o)
	if err != nil {
		t.Error(err)
	}
	if created {
		t.Error("expected a duplicate insert to be a no-op")
	}
}

func TestInsertObservationCreatesMissingPartition(t *testing.T) {
	db, ctx, cancel, err := newDb()
	defer cancel()

	if err != nil {
		t.Log("could not connect to database or create tables, will skip test")
		t.SkipNow()
	}

	dsID := createTestDatastream(t, ctx, db)

	// a year out, well past the pre provisioned window
	o := app.Observation{
		ID:             uuid.NewString(),
		DatastreamID:   dsID,
		PhenomenonTime: time.Now().UTC().AddDate(1, 0, 0),
		Result:         app.NewNumberResult(1.0),
	}

	created, err := db.InsertObservation(ctx, o)
	if err != nil {
		t.Error(err)
	}
	if !created {
		t.Error("expected the insert to succeed after partition creation")
	}
}

func TestBulkInsertObservations(t *testing.T) {
	db, ctx, cancel, err := newDb()
	defer cancel()

	if err != nil {
		t.Log("could not connect to database or create tables, will skip test")
		t.SkipNow()
	}

	dsID := createTestDatastream(t, ctx, db)
	base := time.Now().UTC().Truncate(time.Second)

	obs := make([]app.Observation, 0, 10)
	for i := 0; i < 10; i++ {
		obs = append(obs, app.Observation{
			ID:             uuid.NewString(),
			DatastreamID:   dsID,
			PhenomenonTime: base.Add(time.Duration(i) * time.Minute),
			Result:         app.NewNumberResult(float64(i)),
		})
	}

	if err := db.BulkInsertObservations(ctx, obs); err != nil {
		t.Error(err)
	}

	result, err := db.QueryEntities(ctx, app.EntityTypeObservation, withDatastreamID(dsID))
	if err != nil {
		t.Error(err)
	}
	if len(result.Data) != 10 {
		t.Errorf("expected 10 observations, got %d", len(result.Data))
	}
}

func TestDeleteEntityRemovesRelations(t *testing.T) {
	db, ctx, cancel, err := newDb()
	defer cancel()

	if err != nil {
		t.Log("could not connect to database or create tables, will skip test")
		t.SkipNow()
	}

	thingID := uuid.NewString()
	locationID := uuid.NewString()

	thing, _ := json.Marshal(app.Thing{ID: thingID, Name: "linked", Tenant: "default"})
	if err := db.CreateEntity(ctx, app.EntityTypeThing, thingID, thing, "default"); err != nil {
		t.Error(err)
	}

	location := app.Location{ID: locationID, Name: "park", EncodingType: "application/geo+json", Tenant: "default"}
	_ = json.Unmarshal([]byte(`{"type": "Point", "coordinates": [17.3, 62.4]}`), &location.Location)
	data, _ := json.Marshal(location)
	if err := db.CreateEntity(ctx, app.EntityTypeLocation, locationID, data, "default"); err != nil {
		t.Error(err)
	}

	if err := db.AddRelation(ctx, app.EntityTypeThing, thingID, app.EntityTypeLocation, locationID); err != nil {
		t.Error(err)
	}

	if err := db.DeleteEntity(ctx, app.EntityTypeLocation, locationID); err != nil {
		t.Error(err)
	}

	result, err := db.QueryRelated(ctx, app.EntityTypeThing, thingID, app.EntityTypeLocation)
	if err != nil {
		t.Error(err)
	}
	if len(result.Data) != 0 {
		t.Errorf("expected no related locations after delete, got %d", len(result.Data))
	}
}

func TestBulkInsertRejectsDuplicates(t *testing.T) {
	db, ctx, cancel, err := newDb()
	defer cancel()

	if err != nil {
		t.Log("could not connect to database or create tables, will skip test")
		t.SkipNow()
	}

	dsID := createTestDatastream(t, ctx, db)
	o := app.Observation{
		ID:             uuid.NewString(),
		DatastreamID:   dsID,
		PhenomenonTime: time.Now().UTC().Truncate(time.Second),
		Result:         app.NewNumberResult(3.5),
	}

	if err := db.BulkInsertObservations(ctx, []app.Observation{o}); err != nil {
		t.Error(err)
	}

	o.ID = uuid.NewString()
	err = db.BulkInsertObservations(ctx, []app.Observation{o})
	if !errors.Is(err, app.ErrAlreadyExists) {
		t.Errorf("expected a duplicate batch to be rejected as already existing, got %v", err)
	}
}

func TestQueryRelatedObservationsByParentType(t *testing.T) {
	db, ctx, cancel, err := newDb()
	defer cancel()

	if err != nil {
		t.Log("could not connect to database or create tables, will skip test")
		t.SkipNow()
	}

	thingID := uuid.NewString()
	thing, _ := json.Marshal(app.Thing{ID: thingID, Name: "pump house", Tenant: "default"})
	if err := db.CreateEntity(ctx, app.EntityTypeThing, thingID, thing, "default"); err != nil {
		t.Error(err)
	}

	dsID := createTestDatastream(t, ctx, db)
	if err := db.AddRelation(ctx, app.EntityTypeThing, thingID, app.EntityTypeDatastream, dsID); err != nil {
		t.Error(err)
	}

	f := app.FeatureOfInterest{
		ID:           uuid.NewString(),
		Name:         "pump inlet",
		EncodingType: "application/geo+json",
		Tenant:       "default",
	}
	_ = json.Unmarshal([]byte(`{"type": "Point", "coordinates": [17.1, 62.1]}`), &f.Feature)
	featureID, err := db.GetOrCreateFeatureOfInterest(ctx, f)
	if err != nil {
		t.Error(err)
	}

	o := app.Observation{
		ID:                  uuid.NewString(),
		DatastreamID:        dsID,
		FeatureOfInterestID: featureID,
		PhenomenonTime:      time.Now().UTC().Truncate(time.Second),
		Result:              app.NewNumberResult(7.2),
	}
	if _, err := db.InsertObservation(ctx, o); err != nil {
		t.Error(err)
	}

	parents := []struct {
		et app.EntityType
		id string
	}{
		{app.EntityTypeDatastream, dsID},
		{app.EntityTypeFeatureOfInterest, featureID},
		{app.EntityTypeThing, thingID},
	}

	for _, p := range parents {
		result, err := db.QueryRelated(ctx, p.et, p.id, app.EntityTypeObservation)
		if err != nil {
			t.Error(err)
		}
		if len(result.Data) != 1 {
			t.Errorf("expected one observation navigable from %s, got %d", p.et, len(result.Data))
		}
	}

	_, err = db.QueryRelated(ctx, app.EntityTypeSensor, uuid.NewString(), app.EntityTypeObservation)
	if err == nil {
		t.Error("expected observations to not be navigable from a sensor")
	}
}

func TestQueryRelatedFromObservation(t *testing.T) {
	db, ctx, cancel, err := newDb()
	defer cancel()

	if err != nil {
		t.Log("could not connect to database or create tables, will skip test")
		t.SkipNow()
	}

	dsID := createTestDatastream(t, ctx, db)
	o := app.Observation{
		ID:             uuid.NewString(),
		DatastreamID:   dsID,
		PhenomenonTime: time.Now().UTC().Truncate(time.Second),
		Result:         app.NewNumberResult(11.0),
	}
	if _, err := db.InsertObservation(ctx, o); err != nil {
		t.Error(err)
	}

	result, err := db.QueryRelated(ctx, app.EntityTypeObservation, o.ID, app.EntityTypeDatastream)
	if err != nil {
		t.Error(err)
	}
	if len(result.Data) != 1 {
		t.Errorf("expected the owning datastream, got %d rows", len(result.Data))
	}

	// no feature was bound, so the navigation resolves to an empty set
	result, err = db.QueryRelated(ctx, app.EntityTypeObservation, o.ID, app.EntityTypeFeatureOfInterest)
	if err != nil {
		t.Error(err)
	}
	if len(result.Data) != 0 {
		t.Errorf("expected no feature of interest, got %d rows", len(result.Data))
	}

	_, err = db.QueryRelated(ctx, app.EntityTypeObservation, uuid.NewString(), app.EntityTypeDatastream)
	if !errors.Is(err, app.ErrNotFound) {
		t.Errorf("expected an unknown observation to be not found, got %v", err)
	}
}

func TestObservationArgsBindServerTimestamp(t *testing.T) {
	reconciled := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	o := app.Observation{
		ID:              uuid.NewString(),
		DatastreamID:    uuid.NewString(),
		PhenomenonTime:  time.Now().UTC(),
		Result:          app.NewNumberResult(1.0),
		ServerTimestamp: &reconciled,
	}

	args, err := observationArgs(o)
	if err != nil {
		t.Error(err)
	}
	if args["server_ts"] != reconciled {
		t.Errorf("expected the reconciled timestamp to be bound, got %v", args["server_ts"])
	}

	o.ServerTimestamp = nil
	args, err = observationArgs(o)
	if err != nil {
		t.Error(err)
	}

	stamped, ok := args["server_ts"].(time.Time)
	if !ok || time.Since(stamped) > time.Minute {
		t.Errorf("expected a fresh server timestamp, got %v", args["server_ts"])
	}
}
