package storage

import (
	"strings"
	"testing"

	app "github.com/diwise/iot-observations/internal/app/observations"
	"github.com/diwise/iot-observations/internal/app/observations/filter"
	"github.com/jackc/pgx/v5"
	"github.com/matryer/is"
)

func translate(t *testing.T, input string, et app.EntityType) (string, []string, pgx.NamedArgs) {
	t.Helper()

	expr, err := filter.Parse(input)
	if err != nil {
		t.Fatalf("could not parse filter %q: %v", input, err)
	}

	args := pgx.NamedArgs{}
	sql, joins, err := translateFilter(expr, et, args)
	if err != nil {
		t.Fatalf("could not translate filter %q: %v", input, err)
	}

	return sql, joins, args
}

func TestLiteralsBecomeBoundParameters(t *testing.T) {
	is := is.New(t)

	sql, _, args := translate(t, "contains(name,'Weather') and observationType eq 'Measurement'", app.EntityTypeDatastream)

	is.True(!strings.Contains(sql, "Weather"))
	is.True(!strings.Contains(sql, "Measurement"))
	is.Equal(args["f0"], "Weather")
	is.Equal(args["f1"], "Measurement")
	is.True(strings.Contains(sql, "@f0"))
	is.True(strings.Contains(sql, "@f1"))
}

func TestResultCoercedByLiteralKind(t *testing.T) {
	is := is.New(t)

	sql, _, args := translate(t, "result gt 20", app.EntityTypeObservation)

	is.True(strings.Contains(sql, "jsonb_typeof(o.result)='number'"))
	is.Equal(args["f0"], 20.0)

	sql, _, args = translate(t, "result eq 'wet'", app.EntityTypeObservation)

	is.True(strings.Contains(sql, "o.result #>> '{}'"))
	is.Equal(args["f0"], "wet")
}

func TestPrecedenceSurvivesTranslation(t *testing.T) {
	is := is.New(t)

	sql, _, _ := translate(t, "(name eq 'a' or name eq 'b') and description eq 'c'", app.EntityTypeSensor)

	or := strings.Index(sql, "OR")
	and := strings.Index(sql, "AND")
	is.True(or >= 0 && and >= 0)
	// the or-group is parenthesized inside the and
	is.True(strings.HasPrefix(sql, "(("))
}

func TestNavigationPropertyAddsJoin(t *testing.T) {
	is := is.New(t)

	_, joins, _ := translate(t, "datastream/name eq 'outdoor'", app.EntityTypeObservation)

	is.Equal(len(joins), 1)
	is.True(strings.Contains(joins[0], "LEFT JOIN entities ds"))
}

func TestTwoHopNavigationAddsBothJoins(t *testing.T) {
	is := is.New(t)

	_, joins, _ := translate(t, "datastream/thing/name eq 'City Hall'", app.EntityTypeObservation)

	is.Equal(len(joins), 2)
}

func TestJoinOrderFollowsNavigationDependencies(t *testing.T) {
	is := is.New(t)

	// the thing join references the alias the datastream join defines, so
	// it must always come second
	for i := 0; i < 50; i++ {
		_, joins, _ := translate(t, "datastream/thing/name eq 'City Hall'", app.EntityTypeObservation)

		is.Equal(len(joins), 2)
		is.True(strings.Contains(joins[0], "LEFT JOIN entities ds"))
		is.True(strings.Contains(joins[1], "LEFT JOIN entity_relations"))
	}
}

func TestLikeWildcardsInSearchArgumentsAreEscaped(t *testing.T) {
	is := is.New(t)

	sql, _, args := translate(t, "contains(name,'100%_done')", app.EntityTypeThing)

	is.Equal(args["f0"], "100%_done")
	is.True(strings.Contains(sql, `replace`))
	is.True(strings.Contains(sql, `'\%'`))
	is.True(strings.Contains(sql, `'\_'`))
}

func TestGeographyLiteralPassedAsTypedParameter(t *testing.T) {
	is := is.New(t)

	sql, _, args := translate(t, "geo.distance(location, geography'POINT(17.31 62.39)') lt 100", app.EntityTypeLocation)

	is.True(strings.Contains(sql, "@f0::point"))
	is.Equal(args["f0"], "(17.31,62.39)")
	is.Equal(args["f1"], 100.0)
}

func TestPolygonWithin(t *testing.T) {
	is := is.New(t)

	sql, _, args := translate(t, "geo.within(location, geography'POLYGON((0 0, 0 1, 1 1, 0 0))') eq true", app.EntityTypeLocation)

	is.True(strings.Contains(sql, "<@"))
	is.Equal(args["f0"], "((0,0),(0,1),(1,1),(0,0))")
}

func TestTemporalExtraction(t *testing.T) {
	is := is.New(t)

	sql, _, args := translate(t, "year(phenomenonTime) eq 2026", app.EntityTypeObservation)

	is.True(strings.Contains(sql, "date_part('year', o.phenomenon_time)"))
	is.Equal(args["f0"], 2026.0)
}

func TestUnknownPropertyRejectedForObservations(t *testing.T) {
	is := is.New(t)

	expr, err := filter.Parse("nosuchthing eq 1")
	is.NoErr(err)

	_, _, err = translateFilter(expr, app.EntityTypeObservation, pgx.NamedArgs{})
	is.True(err != nil)
}

func TestUnmappedPropertyFallsBackToJsonBag(t *testing.T) {
	is := is.New(t)

	// single segment unmapped properties resolve into the json bag
	sql, _, args := translate(t, "owner eq 'someone'", app.EntityTypeThing)
	is.True(strings.Contains(sql, "e.data->>'owner'"))
	is.Equal(args["f0"], "someone")
}

func TestDeterministicParameterNaming(t *testing.T) {
	is := is.New(t)

	sql1, _, _ := translate(t, "name eq 'a' and description eq 'b'", app.EntityTypeThing)
	sql2, _, _ := translate(t, "name eq 'a' and description eq 'b'", app.EntityTypeThing)

	is.Equal(sql1, sql2)
}
