package observations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BulkRequest is the compact dataArray encoding: an ordered list of
// component names and value rows positionally matching those components.
type BulkRequest struct {
	Datastream entityRef           `json:"Datastream"`
	Components []string            `json:"components"`
	Rows       [][]json.RawMessage `json:"dataArray"`
}

// RowError reports a decode or validation failure for one row, addressed
// by its index so the caller can correct the offending row.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// BatchError collects every row level failure found before the batch was
// rejected. Bulk ingestion is all or nothing: no observation from a batch
// containing errors is ever persisted.
type BatchError struct {
	RowErrors []RowError `json:"errors"`
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch rejected: %d row(s) failed validation", len(e.RowErrors))
}

var ErrBatchTooLarge = errors.New("batch exceeds the configured maximum size")

const (
	componentPhenomenonTime = "phenomenontime"
	componentResultTime     = "resulttime"
	componentResult         = "result"
	componentResultQuality  = "resultquality"
	componentParameters     = "parameters"
	componentFeatureRef     = "featureofinterest/id"
)

// CreateObservations decodes and ingests a dataArray batch. The write
// commits as a single unit through the store's bulk load path.
func (a *app) CreateObservations(ctx context.Context, req BulkRequest, tenant string) ([]string, error) {
	if req.Datastream.ID == "" {
		return nil, &ValidationError{Field: "Datastream", Message: "a datastream reference must be provided"}
	}
	if len(req.Components) == 0 {
		return nil, &ValidationError{Field: "components", Message: "must be provided"}
	}
	if len(req.Rows) == 0 {
		return nil, &ValidationError{Field: "dataArray", Message: "must contain at least one row"}
	}
	if len(req.Rows) > a.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(req.Rows), a.cfg.MaxBatchSize)
	}

	if _, err := a.reader.GetDatastream(ctx, req.Datastream.ID); err != nil {
		return nil, fmt.Errorf("referenced Datastream does not exist: %w", err)
	}

	index := make(map[string]int, len(req.Components))
	for i, c := range req.Components {
		index[strings.ToLower(c)] = i
	}
	if _, ok := index[componentPhenomenonTime]; !ok {
		return nil, &ValidationError{Field: "components", Message: "phenomenonTime is required"}
	}
	if _, ok := index[componentResult]; !ok {
		return nil, &ValidationError{Field: "components", Message: "result is required"}
	}

	observations := make([]Observation, 0, len(req.Rows))
	rowErrors := make([]RowError, 0)

	for i, row := range req.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		o, err := decodeRow(req.Datastream.ID, req.Components, index, row)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: i, Message: err.Error()})
			continue
		}
		observations = append(observations, o)
	}

	if len(rowErrors) > 0 {
		return nil, &BatchError{RowErrors: rowErrors}
	}

	if err := a.writer.BulkInsertObservations(ctx, observations); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(observations))
	for _, o := range observations {
		ids = append(ids, o.ID)
	}

	return ids, nil
}

func decodeRow(datastreamID string, components []string, index map[string]int, row []json.RawMessage) (Observation, error) {
	if len(row) != len(components) {
		return Observation{}, fmt.Errorf("expected %d values, got %d", len(components), len(row))
	}

	o := Observation{
		ID:           uuid.NewString(),
		DatastreamID: datastreamID,
	}

	for name, i := range index {
		raw := row[i]

		switch name {
		case componentPhenomenonTime:
			ts, err := decodeTime(raw)
			if err != nil {
				return Observation{}, fmt.Errorf("invalid phenomenonTime: %s", err.Error())
			}
			o.PhenomenonTime = ts
		case componentResultTime:
			if isJSONNull(raw) {
				continue
			}
			ts, err := decodeTime(raw)
			if err != nil {
				return Observation{}, fmt.Errorf("invalid resultTime: %s", err.Error())
			}
			o.ResultTime = &ts
		case componentResult:
			if err := json.Unmarshal(raw, &o.Result); err != nil {
				return Observation{}, fmt.Errorf("invalid result: %s", err.Error())
			}
			if o.Result.IsEmpty() {
				return Observation{}, errors.New("result must not be null")
			}
		case componentResultQuality:
			if !isJSONNull(raw) {
				o.ResultQuality = append(json.RawMessage(nil), raw...)
			}
		case componentParameters:
			if !isJSONNull(raw) {
				if err := json.Unmarshal(raw, &o.Parameters); err != nil {
					return Observation{}, fmt.Errorf("invalid parameters: %s", err.Error())
				}
			}
		case componentFeatureRef:
			var id string
			if err := json.Unmarshal(raw, &id); err != nil {
				return Observation{}, fmt.Errorf("invalid FeatureOfInterest/id: %s", err.Error())
			}
			o.FeatureOfInterestID = id
		default:
			return Observation{}, fmt.Errorf("unknown component [%s]", components[i])
		}
	}

	if o.PhenomenonTime.IsZero() {
		return Observation{}, errors.New("phenomenonTime must not be null")
	}

	return o, nil
}

func decodeTime(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, s)
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || strings.TrimSpace(string(raw)) == "null"
}
