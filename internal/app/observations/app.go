package observations

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"
)

//go:generate moq -rm -out app_mock.go . App
type App interface {
	RetrieveEntity(ctx context.Context, et EntityType, id string) ([]byte, error)
	QueryEntities(ctx context.Context, et EntityType, params map[string][]string) (QueryResult, error)
	QueryRelated(ctx context.Context, et EntityType, id string, related EntityType, params map[string][]string) (QueryResult, error)
	CreateEntity(ctx context.Context, et EntityType, b []byte, tenant string) ([]byte, error)
	MergeEntity(ctx context.Context, et EntityType, id string, b []byte, tenants []string) ([]byte, error)
	DeleteEntity(ctx context.Context, et EntityType, id string, tenants []string) error

	LinkThingLocation(ctx context.Context, thingID, locationID string) error

	CreateObservations(ctx context.Context, req BulkRequest, tenant string) ([]string, error)
	Sync(ctx context.Context, req SyncRequest, tenants []string) (SyncResult, error)

	AddObservationFromDevice(ctx context.Context, deviceID string, o Observation) error

	Seed(ctx context.Context, r io.Reader) error
}

//go:generate moq -rm -out reader_mock.go . EntityReader
type EntityReader interface {
	QueryEntities(ctx context.Context, et EntityType, conditions ...ConditionFunc) (QueryResult, error)
	RetrieveEntity(ctx context.Context, et EntityType, id string) ([]byte, error)
	QueryRelated(ctx context.Context, et EntityType, id string, related EntityType, conditions ...ConditionFunc) (QueryResult, error)
	GetDatastream(ctx context.Context, id string) (Datastream, error)
	GetDatastreamByDevice(ctx context.Context, deviceID string) (Datastream, error)
}

//go:generate moq -rm -out writer_mock.go . EntityWriter
type EntityWriter interface {
	CreateEntity(ctx context.Context, et EntityType, id string, data []byte, tenant string) error
	UpdateEntity(ctx context.Context, et EntityType, id string, data []byte) error
	DeleteEntity(ctx context.Context, et EntityType, id string) error
	AddRelation(ctx context.Context, parentType EntityType, parentID string, childType EntityType, childID string) error
	GetOrCreateFeatureOfInterest(ctx context.Context, f FeatureOfInterest) (string, error)
	InsertObservation(ctx context.Context, o Observation) (bool, error)
	BulkInsertObservations(ctx context.Context, obs []Observation) error
}

var ErrNotFound = errors.New("entity not found")
var ErrAlreadyExists = errors.New("entity already exists")

// ValidationError rejects a write before anything is persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ThingLocationLinked is emitted after a Thing-Location link is written.
// The historical location trail is produced by its handler, not by a
// database trigger, so the invariant stays visible and testable.
type ThingLocationLinked struct {
	ThingID    string
	LocationID string
	At         time.Time
}

type app struct {
	reader EntityReader
	writer EntityWriter
	cfg    *Config

	onLinked func(ctx context.Context, evt ThingLocationLinked) error
}

type Config struct {
	PartitionGranularity string `yaml:"partitionGranularity"`
	PartitionsAhead      int    `yaml:"partitionsAhead"`
	ExtentRefreshSeconds int    `yaml:"extentRefreshSeconds"`
	RetentionDays        int    `yaml:"retentionDays"`
	HistoricalRetention  int    `yaml:"historicalRetentionDays"`
	MaxBatchSize         int    `yaml:"maxBatchSize"`
}

func DefaultConfig() *Config {
	return &Config{
		PartitionGranularity: "month",
		PartitionsAhead:      3,
		ExtentRefreshSeconds: 30,
		MaxBatchSize:         10000,
	}
}

func New(r EntityReader, w EntityWriter, cfg *Config) App {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	a := &app{
		reader: r,
		writer: w,
		cfg:    cfg,
	}
	a.onLinked = a.createHistoricalLocation
	return a
}

// LoadConfig reads the engine configuration (partitioning, retention,
// batch limits) from a yaml file.
func LoadConfig(r io.Reader) (*Config, error) {
	c := Config{}
	err := yaml.NewDecoder(r).Decode(&c)
	if err != nil {
		return nil, err
	}

	if c.PartitionGranularity == "" {
		c.PartitionGranularity = "month"
	}
	if c.PartitionsAhead < 1 {
		c.PartitionsAhead = 3
	}
	if c.ExtentRefreshSeconds < 1 {
		c.ExtentRefreshSeconds = 30
	}
	if c.MaxBatchSize < 1 {
		c.MaxBatchSize = 10000
	}

	return &c, nil
}

func (a *app) RetrieveEntity(ctx context.Context, et EntityType, id string) ([]byte, error) {
	return a.reader.RetrieveEntity(ctx, et, id)
}

func (a *app) QueryEntities(ctx context.Context, et EntityType, params map[string][]string) (QueryResult, error) {
	conditions, err := WithParams(params)
	if err != nil {
		return QueryResult{}, err
	}
	return a.reader.QueryEntities(ctx, et, conditions...)
}

func (a *app) QueryRelated(ctx context.Context, et EntityType, id string, related EntityType, params map[string][]string) (QueryResult, error) {
	conditions, err := WithParams(params)
	if err != nil {
		return QueryResult{}, err
	}

	_, err = a.reader.RetrieveEntity(ctx, et, id)
	if err != nil {
		return QueryResult{}, err
	}

	return a.reader.QueryRelated(ctx, et, id, related, conditions...)
}

// entityRef is the inline navigation binding format of a create request,
// e.g. {"Datastream": {"@iot.id": "..."}}
type entityRef struct {
	ID string `json:"@iot.id"`
}

func (a *app) CreateEntity(ctx context.Context, et EntityType, b []byte, tenant string) ([]byte, error) {
	if tenant == "" {
		return nil, &ValidationError{Field: "tenant", Message: "must be provided"}
	}

	switch et {
	case EntityTypeThing:
		return a.createThing(ctx, b, tenant)
	case EntityTypeLocation:
		return a.createLocation(ctx, b, tenant)
	case EntityTypeSensor:
		return a.createSensor(ctx, b, tenant)
	case EntityTypeObservedProperty:
		return a.createObservedProperty(ctx, b, tenant)
	case EntityTypeDatastream:
		return a.createDatastream(ctx, b, tenant)
	case EntityTypeFeatureOfInterest:
		return a.createFeatureOfInterest(ctx, b, tenant)
	case EntityTypeObservation:
		return a.createObservation(ctx, b, tenant)
	default:
		return nil, &ValidationError{Field: "entityType", Message: fmt.Sprintf("%s cannot be created directly", et)}
	}
}

func (a *app) createThing(ctx context.Context, b []byte, tenant string) ([]byte, error) {
	payload := struct {
		Thing
		Locations []entityRef `json:"Locations,omitempty"`
	}{}
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, &ValidationError{Field: "body", Message: err.Error()}
	}

	t := payload.Thing
	if t.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "must be provided"}
	}

	t.ID = uuid.NewString()
	t.Tenant = tenant

	data, _ := json.Marshal(t)
	if err := a.writer.CreateEntity(ctx, EntityTypeThing, t.ID, data, tenant); err != nil {
		return nil, err
	}

	for _, ref := range payload.Locations {
		if err := a.LinkThingLocation(ctx, t.ID, ref.ID); err != nil {
			return nil, err
		}
	}

	return data, nil
}

func (a *app) createLocation(ctx context.Context, b []byte, tenant string) ([]byte, error) {
	l := Location{}
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, &ValidationError{Field: "body", Message: err.Error()}
	}

	if l.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "must be provided"}
	}
	if l.EncodingType == "" {
		return nil, &ValidationError{Field: "encodingType", Message: "must be provided"}
	}
	if err := l.Location.Validate(); err != nil {
		return nil, &ValidationError{Field: "location", Message: err.Error()}
	}

	l.ID = uuid.NewString()
	l.Tenant = tenant

	data, _ := json.Marshal(l)
	if err := a.writer.CreateEntity(ctx, EntityTypeLocation, l.ID, data, tenant); err != nil {
		return nil, err
	}

	return data, nil
}

func (a *app) createSensor(ctx context.Context, b []byte, tenant string) ([]byte, error) {
	s := Sensor{}
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, &ValidationError{Field: "body", Message: err.Error()}
	}

	if s.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "must be provided"}
	}
	if s.EncodingType == "" {
		return nil, &ValidationError{Field: "encodingType", Message: "must be provided"}
	}

	s.ID = uuid.NewString()
	s.Tenant = tenant

	data, _ := json.Marshal(s)
	if err := a.writer.CreateEntity(ctx, EntityTypeSensor, s.ID, data, tenant); err != nil {
		return nil, err
	}

	return data, nil
}

func (a *app) createObservedProperty(ctx context.Context, b []byte, tenant string) ([]byte, error) {
	op := ObservedProperty{}
	if err := json.Unmarshal(b, &op); err != nil {
		return nil, &ValidationError{Field: "body", Message: err.Error()}
	}

	if op.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "must be provided"}
	}
	if op.Definition == "" {
		return nil, &ValidationError{Field: "definition", Message: "must be provided"}
	}

	op.ID = uuid.NewString()
	op.Tenant = tenant

	data, _ := json.Marshal(op)
	if err := a.writer.CreateEntity(ctx, EntityTypeObservedProperty, op.ID, data, tenant); err != nil {
		return nil, err
	}

	return data, nil
}

func (a *app) createDatastream(ctx context.Context, b []byte, tenant string) ([]byte, error) {
	payload := struct {
		Datastream
		Thing            *entityRef `json:"Thing"`
		Sensor           *entityRef `json:"Sensor"`
		ObservedProperty *entityRef `json:"ObservedProperty"`
	}{}
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, &ValidationError{Field: "body", Message: err.Error()}
	}

	ds := payload.Datastream
	if ds.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "must be provided"}
	}
	if payload.Thing == nil || payload.Thing.ID == "" {
		return nil, &ValidationError{Field: "Thing", Message: "a thing reference must be provided"}
	}
	if payload.Sensor == nil || payload.Sensor.ID == "" {
		return nil, &ValidationError{Field: "Sensor", Message: "a sensor reference must be provided"}
	}
	if payload.ObservedProperty == nil || payload.ObservedProperty.ID == "" {
		return nil, &ValidationError{Field: "ObservedProperty", Message: "an observed property reference must be provided"}
	}

	for et, ref := range map[EntityType]*entityRef{
		EntityTypeThing:            payload.Thing,
		EntityTypeSensor:           payload.Sensor,
		EntityTypeObservedProperty: payload.ObservedProperty,
	} {
		if _, err := a.reader.RetrieveEntity(ctx, et, ref.ID); err != nil {
			return nil, fmt.Errorf("referenced %s does not exist: %w", et, err)
		}
	}

	ds.ID = uuid.NewString()
	ds.ThingID = payload.Thing.ID
	ds.SensorID = payload.Sensor.ID
	ds.ObservedPropertyID = payload.ObservedProperty.ID
	ds.Tenant = tenant

	data, _ := json.Marshal(ds)
	if err := a.writer.CreateEntity(ctx, EntityTypeDatastream, ds.ID, data, tenant); err != nil {
		return nil, err
	}

	if err := a.writer.AddRelation(ctx, EntityTypeThing, ds.ThingID, EntityTypeDatastream, ds.ID); err != nil {
		return nil, err
	}
	if err := a.writer.AddRelation(ctx, EntityTypeDatastream, ds.ID, EntityTypeSensor, ds.SensorID); err != nil {
		return nil, err
	}
	if err := a.writer.AddRelation(ctx, EntityTypeDatastream, ds.ID, EntityTypeObservedProperty, ds.ObservedPropertyID); err != nil {
		return nil, err
	}

	return data, nil
}

func (a *app) createFeatureOfInterest(ctx context.Context, b []byte, tenant string) ([]byte, error) {
	f := FeatureOfInterest{}
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, &ValidationError{Field: "body", Message: err.Error()}
	}

	if f.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "must be provided"}
	}
	if err := f.Feature.Validate(); err != nil {
		return nil, &ValidationError{Field: "feature", Message: err.Error()}
	}

	f.ID = uuid.NewString()
	f.Tenant = tenant

	id, err := a.writer.GetOrCreateFeatureOfInterest(ctx, f)
	if err != nil {
		return nil, err
	}

	return a.reader.RetrieveEntity(ctx, EntityTypeFeatureOfInterest, id)
}

func (a *app) createObservation(ctx context.Context, b []byte, tenant string) ([]byte, error) {
	payload := struct {
		Observation
		Datastream        *entityRef         `json:"Datastream"`
		FeatureOfInterest *FeatureOfInterest `json:"FeatureOfInterest,omitempty"`
	}{}
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, &ValidationError{Field: "body", Message: err.Error()}
	}

	o := payload.Observation
	if payload.Datastream == nil || payload.Datastream.ID == "" {
		return nil, &ValidationError{Field: "Datastream", Message: "a datastream reference must be provided"}
	}
	if o.PhenomenonTime.IsZero() {
		return nil, &ValidationError{Field: "phenomenonTime", Message: "must be provided"}
	}
	if o.Result.IsEmpty() {
		return nil, &ValidationError{Field: "result", Message: "must be provided"}
	}

	if _, err := a.reader.GetDatastream(ctx, payload.Datastream.ID); err != nil {
		return nil, fmt.Errorf("referenced Datastream does not exist: %w", err)
	}

	o.ID = uuid.NewString()
	o.DatastreamID = payload.Datastream.ID

	if payload.FeatureOfInterest != nil {
		f := *payload.FeatureOfInterest
		if f.ID == "" {
			if err := f.Feature.Validate(); err != nil {
				return nil, &ValidationError{Field: "FeatureOfInterest", Message: err.Error()}
			}
			f.ID = uuid.NewString()
			f.Tenant = tenant
			featureID, err := a.writer.GetOrCreateFeatureOfInterest(ctx, f)
			if err != nil {
				return nil, err
			}
			o.FeatureOfInterestID = featureID
		} else {
			o.FeatureOfInterestID = f.ID
		}
	}

	if _, err := a.writer.InsertObservation(ctx, o); err != nil {
		return nil, err
	}

	return json.Marshal(o)
}

func (a *app) MergeEntity(ctx context.Context, et EntityType, id string, b []byte, tenants []string) ([]byte, error) {
	if len(tenants) == 0 {
		return nil, errors.New("tenants must be provided")
	}
	if et == EntityTypeObservation || et == EntityTypeHistoricalLocation {
		return nil, &ValidationError{Field: "entityType", Message: fmt.Sprintf("%s are immutable", et)}
	}

	patch := make(map[string]any)
	if err := json.Unmarshal(b, &patch); err != nil {
		return nil, &ValidationError{Field: "body", Message: err.Error()}
	}

	result, err := a.reader.QueryEntities(ctx, et, WithID(id), WithTenants(tenants))
	if err != nil {
		return nil, err
	}
	if len(result.Data) != 1 {
		return nil, ErrNotFound
	}

	current := make(map[string]any)
	if err := json.Unmarshal(result.Data[0], &current); err != nil {
		return nil, err
	}

	for k, v := range patch {
		if slices.Contains([]string{"@iot.id", "tenant"}, k) {
			continue
		}
		current[k] = v
	}

	merged, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}

	if err := a.writer.UpdateEntity(ctx, et, id, merged); err != nil {
		return nil, err
	}

	return merged, nil
}

func (a *app) DeleteEntity(ctx context.Context, et EntityType, id string, tenants []string) error {
	if len(tenants) == 0 {
		return errors.New("tenants must be provided")
	}

	result, err := a.reader.QueryEntities(ctx, et, WithID(id), WithTenants(tenants))
	if err != nil {
		return err
	}
	if len(result.Data) != 1 {
		return ErrNotFound
	}

	return a.writer.DeleteEntity(ctx, et, id)
}

func (a *app) LinkThingLocation(ctx context.Context, thingID, locationID string) error {
	if _, err := a.reader.RetrieveEntity(ctx, EntityTypeThing, thingID); err != nil {
		return err
	}
	if _, err := a.reader.RetrieveEntity(ctx, EntityTypeLocation, locationID); err != nil {
		return err
	}

	err := a.writer.AddRelation(ctx, EntityTypeThing, thingID, EntityTypeLocation, locationID)
	if err != nil {
		return err
	}

	return a.onLinked(ctx, ThingLocationLinked{
		ThingID:    thingID,
		LocationID: locationID,
		At:         time.Now().UTC(),
	})
}

func (a *app) createHistoricalLocation(ctx context.Context, evt ThingLocationLinked) error {
	hl := HistoricalLocation{
		ID:      uuid.NewString(),
		ThingID: evt.ThingID,
		Time:    evt.At,
	}

	data, _ := json.Marshal(hl)
	err := a.writer.CreateEntity(ctx, EntityTypeHistoricalLocation, hl.ID, data, "")
	if err != nil {
		return err
	}

	err = a.writer.AddRelation(ctx, EntityTypeThing, evt.ThingID, EntityTypeHistoricalLocation, hl.ID)
	if err != nil {
		return err
	}

	return a.writer.AddRelation(ctx, EntityTypeHistoricalLocation, hl.ID, EntityTypeLocation, evt.LocationID)
}

func (a *app) AddObservationFromDevice(ctx context.Context, deviceID string, o Observation) error {
	ds, err := a.reader.GetDatastreamByDevice(ctx, deviceID)
	if err != nil {
		return err
	}

	if o.PhenomenonTime.IsZero() {
		return &ValidationError{Field: "phenomenonTime", Message: "must be provided"}
	}
	if o.Result.IsEmpty() {
		return &ValidationError{Field: "result", Message: "must be provided"}
	}

	o.ID = uuid.NewString()
	o.DatastreamID = ds.ID

	_, err = a.writer.InsertObservation(ctx, o)
	return err
}

// Seed loads reference entities (sensors, observed properties, things and
// their datastreams) from a csv file at startup.
func (a *app) Seed(ctx context.Context, r io.Reader) error {
	f := csv.NewReader(r)
	f.Comma = ';'
	f.FieldsPerRecord = -1
	rowNum := 0

	for {
		record, err := f.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if rowNum == 0 {
			rowNum++
			continue
		}

		if len(record) < 4 {
			return fmt.Errorf("seed row %d has too few columns", rowNum)
		}

		//  0       1     2       3        4...
		// kind -- id -- name -- tenant -- kind specific
		kind := strings.ToLower(record[0])
		id_ := record[1]
		name_ := record[2]
		tenant_ := record[3]

		if _, err := a.reader.RetrieveEntity(ctx, seedEntityType(kind), id_); err == nil {
			rowNum++
			continue
		}

		switch kind {
		case "sensor":
			s := Sensor{ID: id_, Name: name_, EncodingType: "application/pdf", Metadata: field(record, 4), Tenant: tenant_}
			data, _ := json.Marshal(s)
			err = a.writer.CreateEntity(ctx, EntityTypeSensor, id_, data, tenant_)
		case "observedproperty":
			op := ObservedProperty{ID: id_, Name: name_, Definition: field(record, 4), Tenant: tenant_}
			data, _ := json.Marshal(op)
			err = a.writer.CreateEntity(ctx, EntityTypeObservedProperty, id_, data, tenant_)
		case "thing":
			t := Thing{ID: id_, Name: name_, Description: field(record, 4), Tenant: tenant_}
			data, _ := json.Marshal(t)
			err = a.writer.CreateEntity(ctx, EntityTypeThing, id_, data, tenant_)
		case "datastream":
			ds := Datastream{
				ID:                 id_,
				Name:               name_,
				ThingID:            field(record, 4),
				SensorID:           field(record, 5),
				ObservedPropertyID: field(record, 6),
				UnitOfMeasurement:  UnitOfMeasurement{Symbol: field(record, 7)},
				Tenant:             tenant_,
			}
			data, _ := json.Marshal(ds)
			err = a.writer.CreateEntity(ctx, EntityTypeDatastream, id_, data, tenant_)
			if err == nil {
				err = a.writer.AddRelation(ctx, EntityTypeThing, ds.ThingID, EntityTypeDatastream, ds.ID)
			}
		default:
			err = fmt.Errorf("unknown seed kind [%s]", kind)
		}

		if err != nil {
			return err
		}

		rowNum++
	}

	return nil
}

func seedEntityType(kind string) EntityType {
	switch kind {
	case "sensor":
		return EntityTypeSensor
	case "observedproperty":
		return EntityTypeObservedProperty
	case "datastream":
		return EntityTypeDatastream
	default:
		return EntityTypeThing
	}
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
