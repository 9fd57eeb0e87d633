package observations

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

type EntityType string

const (
	EntityTypeThing              EntityType = "Things"
	EntityTypeLocation           EntityType = "Locations"
	EntityTypeHistoricalLocation EntityType = "HistoricalLocations"
	EntityTypeSensor             EntityType = "Sensors"
	EntityTypeObservedProperty   EntityType = "ObservedProperties"
	EntityTypeDatastream         EntityType = "Datastreams"
	EntityTypeObservation        EntityType = "Observations"
	EntityTypeFeatureOfInterest  EntityType = "FeaturesOfInterest"
)

var entityTypes = map[string]EntityType{
	"things":              EntityTypeThing,
	"locations":           EntityTypeLocation,
	"historicallocations": EntityTypeHistoricalLocation,
	"sensors":             EntityTypeSensor,
	"observedproperties":  EntityTypeObservedProperty,
	"datastreams":         EntityTypeDatastream,
	"observations":        EntityTypeObservation,
	"featuresofinterest":  EntityTypeFeatureOfInterest,
}

func ParseEntityType(s string) (EntityType, bool) {
	et, ok := entityTypes[strings.ToLower(s)]
	return et, ok
}

type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func (g Geometry) IsZero() bool {
	return g.Type == "" && len(g.Coordinates) == 0
}

func (g Geometry) Validate() error {
	switch g.Type {
	case "Point", "MultiPoint", "LineString", "MultiLineString", "Polygon", "MultiPolygon":
	default:
		return fmt.Errorf("unsupported geometry type [%s]", g.Type)
	}
	if len(g.Coordinates) == 0 {
		return errors.New("geometry has no coordinates")
	}
	var probe any
	if err := json.Unmarshal(g.Coordinates, &probe); err != nil {
		return fmt.Errorf("invalid coordinates: %w", err)
	}
	return nil
}

// Canonical returns a stable serialization of the geometry, used as the
// equality key for feature of interest deduplication. Equality is exact,
// not tolerance based, so conceptually equal geometries that differ in
// floating point representation are treated as distinct features.
func (g Geometry) Canonical() string {
	var coords any
	_ = json.Unmarshal(g.Coordinates, &coords)
	b, _ := json.Marshal(map[string]any{"coordinates": coords, "type": g.Type})
	return canonicalJSON(b)
}

func canonicalJSON(b []byte) string {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return string(b)
	}
	var sb strings.Builder
	writeCanonical(&sb, v)
	return sb.String()
}

func writeCanonical(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			sb.Write(kb)
			sb.WriteByte(':')
			writeCanonical(sb, t[k])
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, e)
		}
		sb.WriteByte(']')
	default:
		b, _ := json.Marshal(t)
		sb.Write(b)
	}
}

type Thing struct {
	ID          string         `json:"@iot.id,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Tenant      string         `json:"tenant,omitempty"`
}

type Location struct {
	ID           string   `json:"@iot.id,omitempty"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	EncodingType string   `json:"encodingType"`
	Location     Geometry `json:"location"`
	Tenant       string   `json:"tenant,omitempty"`
}

type HistoricalLocation struct {
	ID          string    `json:"@iot.id,omitempty"`
	ThingID     string    `json:"thingId,omitempty"`
	Time        time.Time `json:"time"`
	LocationIDs []string  `json:"locationIds,omitempty"`
}

type Sensor struct {
	ID           string `json:"@iot.id,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	EncodingType string `json:"encodingType"`
	Metadata     string `json:"metadata"`
	Tenant       string `json:"tenant,omitempty"`
}

type ObservedProperty struct {
	ID          string `json:"@iot.id,omitempty"`
	Name        string `json:"name"`
	Definition  string `json:"definition"`
	Description string `json:"description,omitempty"`
	Tenant      string `json:"tenant,omitempty"`
}

type UnitOfMeasurement struct {
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	Definition string `json:"definition"`
}

type Datastream struct {
	ID                 string            `json:"@iot.id,omitempty"`
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	ObservationType    string            `json:"observationType,omitempty"`
	UnitOfMeasurement  UnitOfMeasurement `json:"unitOfMeasurement"`
	ThingID            string            `json:"thingId,omitempty"`
	SensorID           string            `json:"sensorId,omitempty"`
	ObservedPropertyID string            `json:"observedPropertyId,omitempty"`
	RefDevice          string            `json:"refDevice,omitempty"`
	Tenant             string            `json:"tenant,omitempty"`

	// derived, eventually consistent
	PhenomenonTimeStart *time.Time `json:"phenomenonTimeStart,omitempty"`
	PhenomenonTimeEnd   *time.Time `json:"phenomenonTimeEnd,omitempty"`
	ResultTimeStart     *time.Time `json:"resultTimeStart,omitempty"`
	ResultTimeEnd       *time.Time `json:"resultTimeEnd,omitempty"`
	ObservedArea        *Geometry  `json:"observedArea,omitempty"`
}

type FeatureOfInterest struct {
	ID           string   `json:"@iot.id,omitempty"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	EncodingType string   `json:"encodingType"`
	Feature      Geometry `json:"feature"`
	Tenant       string   `json:"tenant,omitempty"`
}

type ResultKind int

const (
	ResultKindEmpty ResultKind = iota
	ResultKindNumber
	ResultKindString
	ResultKindBool
	ResultKindObject
)

// Result is the polymorphic observation result. It round-trips through
// JSON unchanged and exposes the decoded variant to application code.
type Result struct {
	kind   ResultKind
	number float64
	str    string
	b      bool
	raw    json.RawMessage
}

func NewNumberResult(v float64) Result { return Result{kind: ResultKindNumber, number: v} }
func NewStringResult(v string) Result  { return Result{kind: ResultKindString, str: v} }
func NewBoolResult(v bool) Result      { return Result{kind: ResultKindBool, b: v} }

func (r Result) Kind() ResultKind        { return r.kind }
func (r Result) Number() (float64, bool) { return r.number, r.kind == ResultKindNumber }
func (r Result) Text() (string, bool)    { return r.str, r.kind == ResultKindString }
func (r Result) Bool() (bool, bool)      { return r.b, r.kind == ResultKindBool }
func (r Result) IsEmpty() bool           { return r.kind == ResultKindEmpty }

func (r Result) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case ResultKindNumber:
		return json.Marshal(r.number)
	case ResultKindString:
		return json.Marshal(r.str)
	case ResultKindBool:
		return json.Marshal(r.b)
	case ResultKindObject:
		return r.raw, nil
	default:
		return []byte("null"), nil
	}
}

func (r *Result) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" || trimmed == "null" {
		*r = Result{}
		return nil
	}

	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*r = Result{kind: ResultKindNumber, number: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = Result{kind: ResultKindString, str: s}
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*r = Result{kind: ResultKindBool, b: v}
		return nil
	}

	var probe any
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	*r = Result{kind: ResultKindObject, raw: append(json.RawMessage(nil), b...)}
	return nil
}

// Canonical returns a stable serialization used for duplicate detection
// during offline sync reconciliation.
func (r Result) Canonical() string {
	b, _ := r.MarshalJSON()
	return canonicalJSON(b)
}

type Observation struct {
	ID                  string          `json:"@iot.id,omitempty"`
	DatastreamID        string          `json:"datastreamId,omitempty"`
	FeatureOfInterestID string          `json:"featureOfInterestId,omitempty"`
	PhenomenonTime      time.Time       `json:"phenomenonTime"`
	ResultTime          *time.Time      `json:"resultTime,omitempty"`
	Result              Result          `json:"result"`
	ResultQuality       json.RawMessage `json:"resultQuality,omitempty"`
	Parameters          map[string]any  `json:"parameters,omitempty"`

	// mobile bookkeeping
	ClientTimestamp *time.Time `json:"clientTimestamp,omitempty"`
	ServerTimestamp *time.Time `json:"serverTimestamp,omitempty"`
	SyncBatchID     string     `json:"syncBatchId,omitempty"`
}
