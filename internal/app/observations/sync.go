package observations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// SyncRequest is a batch of observations recorded offline by a mobile
// client, submitted for reconciliation against server state.
type SyncRequest struct {
	ThingID      string            `json:"thingId"`
	Since        *time.Time        `json:"sinceTimestamp,omitempty"`
	SyncBatchID  string            `json:"syncBatchId"`
	Observations []SyncObservation `json:"observations"`
}

type SyncObservation struct {
	DatastreamID    string     `json:"datastreamId"`
	PhenomenonTime  time.Time  `json:"phenomenonTime"`
	ResultTime      *time.Time `json:"resultTime,omitempty"`
	Result          Result     `json:"result"`
	ClientTimestamp *time.Time `json:"clientTimestamp,omitempty"`
}

type SyncItemError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// SyncResult enumerates what happened to each submitted item. Duplicates
// are no-ops, failures are reported individually, and the batch as a
// whole always commits for the items that succeeded.
type SyncResult struct {
	ServerTimestamp time.Time       `json:"serverTimestamp"`
	Created         int             `json:"created"`
	Updated         int             `json:"updated"`
	Errors          []SyncItemError `json:"errors"`
}

func (a *app) Sync(ctx context.Context, req SyncRequest, tenants []string) (SyncResult, error) {
	if req.ThingID == "" {
		return SyncResult{}, &ValidationError{Field: "thingId", Message: "must be provided"}
	}
	if req.SyncBatchID == "" {
		req.SyncBatchID = uuid.NewString()
	}

	result, err := a.reader.QueryEntities(ctx, EntityTypeThing, WithID(req.ThingID), WithTenants(tenants))
	if err != nil {
		return SyncResult{}, err
	}
	if len(result.Data) != 1 {
		return SyncResult{}, ErrNotFound
	}

	// datastream ids owned by the referenced thing; submissions against
	// anything else are rejected per item
	owned, err := a.ownedDatastreams(ctx, req.ThingID)
	if err != nil {
		return SyncResult{}, err
	}

	serverTimestamp := time.Now().UTC()
	res := SyncResult{
		ServerTimestamp: serverTimestamp,
		Errors:          make([]SyncItemError, 0),
	}

	for i, item := range req.Observations {
		if err := ctx.Err(); err != nil {
			return SyncResult{}, err
		}

		if err := validateSyncItem(item, owned, req.Since); err != nil {
			res.Errors = append(res.Errors, SyncItemError{Index: i, Message: err.Error()})
			continue
		}

		o := Observation{
			ID:              uuid.NewString(),
			DatastreamID:    item.DatastreamID,
			PhenomenonTime:  item.PhenomenonTime,
			ResultTime:      item.ResultTime,
			Result:          item.Result,
			ClientTimestamp: item.ClientTimestamp,
			ServerTimestamp: &serverTimestamp,
			SyncBatchID:     req.SyncBatchID,
		}

		created, err := a.writer.InsertObservation(ctx, o)
		if err != nil {
			res.Errors = append(res.Errors, SyncItemError{Index: i, Message: err.Error()})
			continue
		}

		if created {
			res.Created++
		}
		// a duplicate of (datastreamId, phenomenonTime, result) is a no-op,
		// counted neither as created nor as an error
	}

	return res, nil
}

func validateSyncItem(item SyncObservation, owned []string, since *time.Time) error {
	if item.DatastreamID == "" {
		return errors.New("datastreamId must be provided")
	}
	if !slices.Contains(owned, item.DatastreamID) {
		return fmt.Errorf("datastream [%s] does not belong to the referenced thing", item.DatastreamID)
	}
	if item.PhenomenonTime.IsZero() {
		return errors.New("phenomenonTime must be provided")
	}
	if item.Result.IsEmpty() {
		return errors.New("result must be provided")
	}
	if since != nil && item.PhenomenonTime.Before(*since) {
		return fmt.Errorf("phenomenonTime predates the sync window starting at %s", since.Format(time.RFC3339))
	}
	return nil
}

func (a *app) ownedDatastreams(ctx context.Context, thingID string) ([]string, error) {
	result, err := a.reader.QueryRelated(ctx, EntityTypeThing, thingID, EntityTypeDatastream, WithLimit(1000))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Data))
	for _, b := range result.Data {
		var ds struct {
			ID string `json:"@iot.id"`
		}
		if err := json.Unmarshal(b, &ds); err != nil {
			return nil, err
		}
		ids = append(ids, ds.ID)
	}

	return ids, nil
}
