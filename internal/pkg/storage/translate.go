package storage

import (
	"fmt"
	"strings"

	app "github.com/diwise/iot-observations/internal/app/observations"
	"github.com/diwise/iot-observations/internal/app/observations/filter"
	"github.com/jackc/pgx/v5"
)

type colKind int

const (
	kindText colKind = iota
	kindNumber
	kindTime
	kindGeometry
	kindJSON
)

type column struct {
	expr  string
	kind  colKind
	joins []string
}

type entityMapping struct {
	alias string
	props map[string]column
	joins map[string]string
}

// property to column maps per entity type; adding a filterable property
// is a data change here, not a control flow change in the translator
var entityMappings = map[app.EntityType]entityMapping{
	app.EntityTypeObservation: {
		alias: "o",
		props: map[string]column{
			"id":                     {expr: "o.id", kind: kindText},
			"phenomenontime":         {expr: "o.phenomenon_time", kind: kindTime},
			"resulttime":             {expr: "o.result_time", kind: kindTime},
			"result":                 {expr: "o.result", kind: kindJSON},
			"syncbatchid":            {expr: "o.sync_batch_id", kind: kindText},
			"datastream/id":          {expr: "o.datastream_id", kind: kindText},
			"datastream/name":        {expr: "ds.data->>'name'", kind: kindText, joins: []string{"datastream"}},
			"datastream/thing/id":    {expr: "th.entity_id", kind: kindText, joins: []string{"datastream", "thing"}},
			"datastream/thing/name":  {expr: "th.data->>'name'", kind: kindText, joins: []string{"datastream", "thing"}},
			"featureofinterest/id":   {expr: "o.feature_id", kind: kindText},
			"featureofinterest/name": {expr: "f.data->>'name'", kind: kindText, joins: []string{"feature"}},
			"featureofinterest/feature": {expr: "f.location", kind: kindGeometry, joins: []string{"feature"}},
		},
		joins: map[string]string{
			"datastream": "LEFT JOIN entities ds ON ds.entity_type='Datastreams' AND ds.entity_id=o.datastream_id",
			"thing":      "LEFT JOIN entity_relations tr ON tr.child=ds.node_id LEFT JOIN entities th ON th.node_id=tr.parent AND th.entity_type='Things'",
			"feature":    "LEFT JOIN entities f ON f.entity_type='FeaturesOfInterest' AND f.entity_id=o.feature_id",
		},
	},
	app.EntityTypeDatastream: {
		alias: "e",
		props: map[string]column{
			"id":                  {expr: "e.entity_id", kind: kindText},
			"name":                {expr: "e.data->>'name'", kind: kindText},
			"description":         {expr: "e.data->>'description'", kind: kindText},
			"observationtype":     {expr: "e.data->>'observationType'", kind: kindText},
			"phenomenontimestart": {expr: "(e.data->>'phenomenonTimeStart')::timestamptz", kind: kindTime},
			"phenomenontimeend":   {expr: "(e.data->>'phenomenonTimeEnd')::timestamptz", kind: kindTime},
			"thing/id":            {expr: "th.entity_id", kind: kindText, joins: []string{"thing"}},
			"thing/name":          {expr: "th.data->>'name'", kind: kindText, joins: []string{"thing"}},
			"sensor/id":           {expr: "sn.entity_id", kind: kindText, joins: []string{"sensor"}},
			"sensor/name":         {expr: "sn.data->>'name'", kind: kindText, joins: []string{"sensor"}},
		},
		joins: map[string]string{
			"thing":  "LEFT JOIN entity_relations pr ON pr.child=e.node_id LEFT JOIN entities th ON th.node_id=pr.parent AND th.entity_type='Things'",
			"sensor": "LEFT JOIN entity_relations sr ON sr.parent=e.node_id LEFT JOIN entities sn ON sn.node_id=sr.child AND sn.entity_type='Sensors'",
		},
	},
}

// defaultEntityMapping serves the entity types whose filterable surface
// is the shared json bag plus a geometry.
var defaultEntityMapping = entityMapping{
	alias: "e",
	props: map[string]column{
		"id":           {expr: "e.entity_id", kind: kindText},
		"name":         {expr: "e.data->>'name'", kind: kindText},
		"description":  {expr: "e.data->>'description'", kind: kindText},
		"encodingtype": {expr: "e.data->>'encodingType'", kind: kindText},
		"definition":   {expr: "e.data->>'definition'", kind: kindText},
		"metadata":     {expr: "e.data->>'metadata'", kind: kindText},
		"time":         {expr: "(e.data->>'time')::timestamptz", kind: kindTime},
		"location":     {expr: "e.location", kind: kindGeometry},
		"feature":      {expr: "e.location", kind: kindGeometry},
	},
	joins: map[string]string{},
}

func mappingFor(et app.EntityType) entityMapping {
	if m, ok := entityMappings[et]; ok {
		return m
	}
	return defaultEntityMapping
}

// operator and function templates; every %s is a lowered sub expression,
// literals inside are always bound parameters
var comparisonTemplates = map[filter.ComparisonOp]string{
	filter.OpEq: "(%s = %s)",
	filter.OpNe: "(%s <> %s)",
	filter.OpGt: "(%s > %s)",
	filter.OpGe: "(%s >= %s)",
	filter.OpLt: "(%s < %s)",
	filter.OpLe: "(%s <= %s)",
}

var functionTemplates = map[string]string{
	"contains":       "(%s LIKE '%%' || %s || '%%')",
	"startswith":     "(%s LIKE %s || '%%')",
	"endswith":       "(%s LIKE '%%' || %s)",
	"length":         "length(%s)",
	"tolower":        "lower(%s)",
	"toupper":        "upper(%s)",
	"trim":           "btrim(%s)",
	"substring":      "substr(%s, (%s)::int + 1)",
	"indexof":        "(position(%s in %s) - 1)",
	"round":          "round((%s)::numeric)",
	"floor":          "floor((%s)::numeric)",
	"ceiling":        "ceil((%s)::numeric)",
	"geo.distance":   "(%s <-> %s)",
	"geo.intersects": "(%s <@ %s)",
	"geo.within":     "(%s <@ %s)",
	"geo.length":     "(@-@ (%s))",
	"year":           "date_part('year', %s)",
	"month":          "date_part('month', %s)",
	"day":            "date_part('day', %s)",
	"hour":           "date_part('hour', %s)",
	"minute":         "date_part('minute', %s)",
	"second":         "date_part('second', %s)",
}

// indexof has its arguments reversed relative to SQL position()
var reverseArgs = map[string]bool{
	"indexof": true,
}

type translator struct {
	mapping entityMapping
	args    pgx.NamedArgs
	joins   []string
	seen    map[string]bool
	n       int
}

// translateFilter lowers a parsed filter expression to a parameterized
// SQL condition for the given entity type. Every literal becomes a bound
// parameter in args; the returned joins are the navigation joins the
// condition depends on.
func translateFilter(expr filter.Expr, et app.EntityType, args pgx.NamedArgs) (string, []string, error) {
	t := &translator{
		mapping: mappingFor(et),
		args:    args,
		seen:    map[string]bool{},
	}

	sql, _, err := t.lower(expr)
	if err != nil {
		return "", nil, err
	}

	// the joins slice of each column is dependency ordered, and
	// lowerProperty collects it in first seen order, so a join is always
	// emitted after the joins its ON clause refers to
	joins := make([]string, 0, len(t.joins))
	for _, name := range t.joins {
		joins = append(joins, t.mapping.joins[name])
	}

	return sql, joins, nil
}

func (t *translator) param(v any) string {
	name := fmt.Sprintf("f%d", t.n)
	t.n++
	t.args[name] = v
	return "@" + name
}

func (t *translator) lower(expr filter.Expr) (string, colKind, error) {
	switch e := expr.(type) {
	case *filter.LogicalExpr:
		return t.lowerLogical(e)
	case *filter.ComparisonExpr:
		return t.lowerComparison(e)
	case *filter.CallExpr:
		return t.lowerCall(e)
	case *filter.PropertyExpr:
		return t.lowerProperty(e)
	case *filter.LiteralExpr:
		return t.lowerLiteral(e, kindText)
	default:
		return "", kindText, fmt.Errorf("unsupported expression node %T", expr)
	}
}

func (t *translator) lowerLogical(e *filter.LogicalExpr) (string, colKind, error) {
	if e.Op == filter.OpNot {
		operand, _, err := t.lower(e.Right)
		if err != nil {
			return "", kindText, err
		}
		return fmt.Sprintf("(NOT %s)", operand), kindText, nil
	}

	left, _, err := t.lower(e.Left)
	if err != nil {
		return "", kindText, err
	}
	right, _, err := t.lower(e.Right)
	if err != nil {
		return "", kindText, err
	}

	op := "AND"
	if e.Op == filter.OpOr {
		op = "OR"
	}

	return fmt.Sprintf("(%s %s %s)", left, op, right), kindText, nil
}

func (t *translator) lowerComparison(e *filter.ComparisonExpr) (string, colKind, error) {
	template := comparisonTemplates[e.Op]

	// lower the non-literal side first so a literal on the other side can
	// be coerced to its kind
	if lit, ok := e.Right.(*filter.LiteralExpr); ok {
		left, kind, err := t.lower(e.Left)
		if err != nil {
			return "", kindText, err
		}
		left, kind = coerce(left, kind, lit)
		right, _, err := t.lowerLiteral(lit, kind)
		if err != nil {
			return "", kindText, err
		}
		return fmt.Sprintf(template, left, right), kindText, nil
	}

	if lit, ok := e.Left.(*filter.LiteralExpr); ok {
		right, kind, err := t.lower(e.Right)
		if err != nil {
			return "", kindText, err
		}
		right, kind = coerce(right, kind, lit)
		left, _, err := t.lowerLiteral(lit, kind)
		if err != nil {
			return "", kindText, err
		}
		return fmt.Sprintf(template, left, right), kindText, nil
	}

	left, _, err := t.lower(e.Left)
	if err != nil {
		return "", kindText, err
	}
	right, _, err := t.lower(e.Right)
	if err != nil {
		return "", kindText, err
	}

	return fmt.Sprintf(template, left, right), kindText, nil
}

// coerce adapts a json valued column to the type of the literal it is
// compared against, so that result gt 20 compares numerically while
// result eq 'wet' compares as text.
func coerce(expr string, kind colKind, lit *filter.LiteralExpr) (string, colKind) {
	if kind != kindJSON {
		return expr, kind
	}

	switch lit.Kind {
	case filter.LiteralNumber:
		return fmt.Sprintf("(CASE WHEN jsonb_typeof(%s)='number' THEN (%s #>> '{}')::numeric END)", expr, expr), kindNumber
	case filter.LiteralBool:
		return fmt.Sprintf("(CASE WHEN jsonb_typeof(%s)='boolean' THEN (%s #>> '{}')::boolean END)", expr, expr), kindNumber
	default:
		return fmt.Sprintf("(%s #>> '{}')", expr), kindText
	}
}

func (t *translator) lowerCall(e *filter.CallExpr) (string, colKind, error) {
	template, ok := functionTemplates[e.Name]
	if !ok {
		return "", kindText, &filter.UnsupportedFunctionError{Name: e.Name}
	}

	lowered := make([]any, 0, len(e.Args))
	for _, arg := range e.Args {
		s, kind, err := t.lower(arg)
		if err != nil {
			return "", kindText, err
		}
		if kind == kindJSON {
			s = fmt.Sprintf("(%s #>> '{}')", s)
		}
		lowered = append(lowered, s)
	}

	if reverseArgs[e.Name] && len(lowered) == 2 {
		lowered[0], lowered[1] = lowered[1], lowered[0]
	}

	// the search argument of a LIKE based function matches literally,
	// so wildcard characters in it must be escaped
	switch e.Name {
	case "contains", "startswith", "endswith":
		if len(lowered) == 2 {
			lowered[1] = escapeLikePattern(lowered[1].(string))
		}
	}

	if e.Name == "concat" {
		parts := make([]string, len(lowered))
		for i, p := range lowered {
			parts[i] = p.(string)
		}
		return fmt.Sprintf("concat(%s)", strings.Join(parts, ", ")), kindText, nil
	}

	kind := kindText
	switch e.Name {
	case "length", "indexof", "round", "floor", "ceiling", "geo.distance", "geo.length",
		"year", "month", "day", "hour", "minute", "second":
		kind = kindNumber
	}

	return fmt.Sprintf(template, lowered...), kind, nil
}

func (t *translator) lowerProperty(e *filter.PropertyExpr) (string, colKind, error) {
	path := strings.ToLower(strings.Join(e.Path, "/"))

	if col, ok := t.mapping.props[path]; ok {
		for _, j := range col.joins {
			if !t.seen[j] {
				t.seen[j] = true
				t.joins = append(t.joins, j)
			}
		}
		return col.expr, col.kind, nil
	}

	// unmapped single segment properties resolve into the json bag
	if len(e.Path) == 1 && t.mapping.alias == "e" {
		return fmt.Sprintf("e.data->>'%s'", sanitizeIdent(e.Path[0])), kindText, nil
	}

	return "", kindText, fmt.Errorf("unknown property [%s]", strings.Join(e.Path, "/"))
}

func (t *translator) lowerLiteral(e *filter.LiteralExpr, want colKind) (string, colKind, error) {
	switch e.Kind {
	case filter.LiteralString:
		return t.param(e.String), kindText, nil
	case filter.LiteralNumber:
		return t.param(e.Number), kindNumber, nil
	case filter.LiteralBool:
		return t.param(e.Bool), kindText, nil
	case filter.LiteralNull:
		return "NULL", want, nil
	case filter.LiteralDateTime:
		return t.param(e.Time) + "::timestamptz", kindTime, nil
	case filter.LiteralGeometry:
		lit, cast, err := wktToGeometric(e.Geometry)
		if err != nil {
			return "", kindGeometry, err
		}
		return t.param(lit) + "::" + cast, kindGeometry, nil
	default:
		return "", want, fmt.Errorf("unsupported literal kind")
	}
}

// escapeLikePattern wraps an expression so that %, _ and the escape
// character itself lose their LIKE semantics
func escapeLikePattern(expr string) string {
	return fmt.Sprintf(`replace(replace(replace(%s, '\', '\\'), '%%', '\%%'), '_', '\_')`, expr)
}

// sanitizeIdent keeps json bag lookups safe for property names that have
// no static mapping
func sanitizeIdent(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r == '\'' || r == '\\' {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// wktToGeometric converts the WKT payload of a geography literal into a
// native geometric literal and the cast it needs. The literal itself is
// still passed as a bound parameter.
func wktToGeometric(wkt string) (string, string, error) {
	wkt = strings.TrimSpace(wkt)
	upper := strings.ToUpper(wkt)

	switch {
	case strings.HasPrefix(upper, "POINT"):
		coords, err := wktCoords(wkt)
		if err != nil || len(coords) != 1 {
			return "", "", fmt.Errorf("invalid POINT literal [%s]", wkt)
		}
		return coords[0], "point", nil

	case strings.HasPrefix(upper, "LINESTRING"):
		coords, err := wktCoords(wkt)
		if err != nil || len(coords) < 2 {
			return "", "", fmt.Errorf("invalid LINESTRING literal [%s]", wkt)
		}
		return "[" + strings.Join(coords, ",") + "]", "path", nil

	case strings.HasPrefix(upper, "POLYGON"):
		coords, err := wktCoords(wkt)
		if err != nil || len(coords) < 3 {
			return "", "", fmt.Errorf("invalid POLYGON literal [%s]", wkt)
		}
		return "(" + strings.Join(coords, ",") + ")", "polygon", nil

	default:
		return "", "", fmt.Errorf("unsupported geometry literal [%s]", wkt)
	}
}

func wktCoords(wkt string) ([]string, error) {
	open := strings.Index(wkt, "(")
	close_ := strings.LastIndex(wkt, ")")
	if open < 0 || close_ < open {
		return nil, fmt.Errorf("malformed WKT")
	}

	inner := wkt[open+1 : close_]
	inner = strings.ReplaceAll(inner, "(", "")
	inner = strings.ReplaceAll(inner, ")", "")

	pairs := strings.Split(inner, ",")
	coords := make([]string, 0, len(pairs))

	for _, p := range pairs {
		fields := strings.Fields(strings.TrimSpace(p))
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed coordinate pair [%s]", p)
		}
		coords = append(coords, "("+fields[0]+","+fields[1]+")")
	}

	return coords, nil
}
