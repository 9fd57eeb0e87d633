package observations

import (
	"encoding/json"
	"testing"

	"github.com/matryer/is"
)

func TestResultKeepsTheWireKind(t *testing.T) {
	is := is.New(t)

	r := Result{}
	is.NoErr(json.Unmarshal([]byte(`21.4`), &r))
	n, ok := r.Number()
	is.True(ok)
	is.Equal(n, 21.4)

	is.NoErr(json.Unmarshal([]byte(`"open"`), &r))
	s, ok := r.Text()
	is.True(ok)
	is.Equal(s, "open")

	is.NoErr(json.Unmarshal([]byte(`true`), &r))
	b, ok := r.Bool()
	is.True(ok)
	is.Equal(b, true)

	is.NoErr(json.Unmarshal([]byte(`null`), &r))
	is.True(r.IsEmpty())
}

func TestResultRoundTripsUnchanged(t *testing.T) {
	is := is.New(t)

	for _, in := range []string{`21.4`, `"open"`, `true`, `{"reading":{"raw":412}}`} {
		r := Result{}
		is.NoErr(json.Unmarshal([]byte(in), &r))
		out, err := json.Marshal(r)
		is.NoErr(err)
		is.Equal(string(out), in)
	}
}

func TestResultCanonicalIsStableAcrossKeyOrder(t *testing.T) {
	is := is.New(t)

	a := Result{}
	is.NoErr(json.Unmarshal([]byte(`{"b": 1, "a": 2}`), &a))
	b := Result{}
	is.NoErr(json.Unmarshal([]byte(`{"a": 2, "b": 1}`), &b))

	is.Equal(a.Canonical(), b.Canonical())
}

func TestResultCanonicalDistinguishesValues(t *testing.T) {
	is := is.New(t)

	a := Result{}
	is.NoErr(json.Unmarshal([]byte(`21.4`), &a))
	b := Result{}
	is.NoErr(json.Unmarshal([]byte(`"21.4"`), &b))

	is.True(a.Canonical() != b.Canonical())
}

func TestGeometryValidation(t *testing.T) {
	is := is.New(t)

	point := Geometry{}
	is.NoErr(json.Unmarshal([]byte(`{"type": "Point", "coordinates": [17.31, 62.39]}`), &point))
	is.NoErr(point.Validate())

	empty := Geometry{}
	is.NoErr(json.Unmarshal([]byte(`{"type": "Point"}`), &empty))
	is.True(empty.Validate() != nil)

	unknown := Geometry{}
	is.NoErr(json.Unmarshal([]byte(`{"type": "Blob", "coordinates": [1, 2]}`), &unknown))
	is.True(unknown.Validate() != nil)
}

func TestGeometryCanonicalIsStableAcrossKeyOrder(t *testing.T) {
	is := is.New(t)

	a := Geometry{}
	is.NoErr(json.Unmarshal([]byte(`{"coordinates": [17.31, 62.39], "type": "Point"}`), &a))
	b := Geometry{}
	is.NoErr(json.Unmarshal([]byte(`{"type": "Point", "coordinates": [17.31, 62.39]}`), &b))

	is.Equal(a.Canonical(), b.Canonical())
}

func TestParseEntityType(t *testing.T) {
	is := is.New(t)

	for in, want := range map[string]EntityType{
		"Things":              EntityTypeThing,
		"Locations":           EntityTypeLocation,
		"HistoricalLocations": EntityTypeHistoricalLocation,
		"Sensors":             EntityTypeSensor,
		"ObservedProperties":  EntityTypeObservedProperty,
		"Datastreams":         EntityTypeDatastream,
		"Observations":        EntityTypeObservation,
		"FeaturesOfInterest":  EntityTypeFeatureOfInterest,
	} {
		et, ok := ParseEntityType(in)
		is.True(ok)
		is.Equal(et, want)
	}

	_, ok := ParseEntityType("Widgets")
	is.True(!ok)
}
