package observations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
)

func syncTestApp(insert func(ctx context.Context, o Observation) (bool, error)) (App, *EntityWriterMock) {
	r := &EntityReaderMock{
		QueryEntitiesFunc: func(ctx context.Context, et EntityType, conditions ...ConditionFunc) (QueryResult, error) {
			return QueryResult{Data: [][]byte{[]byte(`{"@iot.id": "thing-1"}`)}, Count: 1}, nil
		},
		QueryRelatedFunc: func(ctx context.Context, et EntityType, id string, related EntityType, conditions ...ConditionFunc) (QueryResult, error) {
			return QueryResult{Data: [][]byte{
				[]byte(`{"@iot.id": "ds-1"}`),
				[]byte(`{"@iot.id": "ds-2"}`),
			}, Count: 2}, nil
		},
	}
	w := &EntityWriterMock{InsertObservationFunc: insert}
	return New(r, w, DefaultConfig()), w
}

func syncItem(dsID string, ts time.Time, result float64) SyncObservation {
	return SyncObservation{
		DatastreamID:   dsID,
		PhenomenonTime: ts,
		Result:         NewNumberResult(result),
	}
}

func TestSyncCountsCreatedObservations(t *testing.T) {
	is := is.New(t)
	a, w := syncTestApp(func(ctx context.Context, o Observation) (bool, error) {
		return true, nil
	})

	ts := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	res, err := a.Sync(context.Background(), SyncRequest{
		ThingID: "thing-1",
		Observations: []SyncObservation{
			syncItem("ds-1", ts, 20.1),
			syncItem("ds-2", ts.Add(time.Minute), 20.4),
		},
	}, []string{"default"})
	is.NoErr(err)

	is.Equal(res.Created, 2)
	is.Equal(len(res.Errors), 0)
	is.True(!res.ServerTimestamp.IsZero())
	is.Equal(len(w.InsertObservationCalls()), 2)

	// every item carries the batch wide bookkeeping
	o := w.InsertObservationCalls()[0].O
	is.True(o.ServerTimestamp != nil)
	is.True(o.SyncBatchID != "")
}

func TestSyncTreatsDuplicatesAsNoOps(t *testing.T) {
	is := is.New(t)
	first := true
	a, _ := syncTestApp(func(ctx context.Context, o Observation) (bool, error) {
		if first {
			first = false
			return true, nil
		}
		return false, nil
	})

	ts := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	res, err := a.Sync(context.Background(), SyncRequest{
		ThingID: "thing-1",
		Observations: []SyncObservation{
			syncItem("ds-1", ts, 20.1),
			syncItem("ds-1", ts, 20.1),
		},
	}, []string{"default"})
	is.NoErr(err)

	is.Equal(res.Created, 1)
	is.Equal(len(res.Errors), 0)
}

func TestSyncReportsFailuresPerItem(t *testing.T) {
	is := is.New(t)
	a, w := syncTestApp(func(ctx context.Context, o Observation) (bool, error) {
		return true, nil
	})

	ts := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	res, err := a.Sync(context.Background(), SyncRequest{
		ThingID: "thing-1",
		Observations: []SyncObservation{
			syncItem("ds-1", ts, 20.1),
			syncItem("ds-elsewhere", ts, 20.4),
			{DatastreamID: "ds-2", PhenomenonTime: ts},
		},
	}, []string{"default"})
	is.NoErr(err)

	is.Equal(res.Created, 1)
	is.Equal(len(res.Errors), 2)
	is.Equal(res.Errors[0].Index, 1)
	is.Equal(res.Errors[1].Index, 2)

	// the failing items never reach the store
	is.Equal(len(w.InsertObservationCalls()), 1)
}

func TestSyncRejectsObservationsPredatingTheWindow(t *testing.T) {
	is := is.New(t)
	a, _ := syncTestApp(func(ctx context.Context, o Observation) (bool, error) {
		return true, nil
	})

	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	res, err := a.Sync(context.Background(), SyncRequest{
		ThingID: "thing-1",
		Since:   &since,
		Observations: []SyncObservation{
			syncItem("ds-1", since.Add(-time.Hour), 20.1),
			syncItem("ds-1", since.Add(time.Hour), 20.4),
		},
	}, []string{"default"})
	is.NoErr(err)

	is.Equal(res.Created, 1)
	is.Equal(len(res.Errors), 1)
	is.Equal(res.Errors[0].Index, 0)
}

func TestSyncRequiresAnExistingThing(t *testing.T) {
	is := is.New(t)
	r := &EntityReaderMock{
		QueryEntitiesFunc: func(ctx context.Context, et EntityType, conditions ...ConditionFunc) (QueryResult, error) {
			return QueryResult{}, nil
		},
	}
	a := New(r, &EntityWriterMock{}, DefaultConfig())

	_, err := a.Sync(context.Background(), SyncRequest{
		ThingID:      "unknown",
		Observations: []SyncObservation{syncItem("ds-1", time.Now(), 20.1)},
	}, []string{"default"})
	is.True(errors.Is(err, ErrNotFound))
}

func TestSyncAssignsBatchIDWhenMissing(t *testing.T) {
	is := is.New(t)
	a, w := syncTestApp(func(ctx context.Context, o Observation) (bool, error) {
		return true, nil
	})

	_, err := a.Sync(context.Background(), SyncRequest{
		ThingID:      "thing-1",
		Observations: []SyncObservation{syncItem("ds-1", time.Now().UTC(), 20.1)},
	}, []string{"default"})
	is.NoErr(err)
	is.True(w.InsertObservationCalls()[0].O.SyncBatchID != "")
}
