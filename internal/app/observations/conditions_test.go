package observations

import (
	"errors"
	"testing"

	"github.com/diwise/iot-observations/internal/app/observations/filter"
	"github.com/matryer/is"
)

func applyConditions(conditions []ConditionFunc) map[string]any {
	m := make(map[string]any)
	for _, c := range conditions {
		m = c(m)
	}
	return m
}

func TestWithParamsBuildsConditions(t *testing.T) {
	is := is.New(t)

	conditions, err := WithParams(map[string][]string{
		"id":       {"t-1"},
		"tenants":  {"default", "other"},
		"$filter":  {"result gt 20"},
		"$orderby": {"phenomenonTime desc"},
		"$top":     {"50"},
		"$skip":    {"100"},
		"$count":   {"true"},
	})
	is.NoErr(err)

	m := applyConditions(conditions)
	is.Equal(m["id"], "t-1")
	is.Equal(m["tenants"], []string{"default", "other"})
	is.Equal(m["limit"], 50)
	is.Equal(m["offset"], 100)
	is.Equal(m["count"], true)
	is.Equal(m["orderby"], "phenomenonTime")
	is.Equal(m["orderdesc"], true)

	_, ok := m["filter"].(filter.Expr)
	is.True(ok)
}

func TestWithParamsRejectsMalformedFilter(t *testing.T) {
	is := is.New(t)

	_, err := WithParams(map[string][]string{"$filter": {"result gt"}})
	syntaxErr := &filter.SyntaxError{}
	is.True(errors.As(err, &syntaxErr))
}

func TestWithParamsRejectsUnsupportedFilterFunction(t *testing.T) {
	is := is.New(t)

	_, err := WithParams(map[string][]string{"$filter": {"geo.touches(location, geography'POINT(0 0)')"}})
	unsupportedErr := &filter.UnsupportedFunctionError{}
	is.True(errors.As(err, &unsupportedErr))
}

func TestWithParamsRejectsBadPaging(t *testing.T) {
	is := is.New(t)

	_, err := WithParams(map[string][]string{"$top": {"zero"}})
	is.True(err != nil)

	_, err = WithParams(map[string][]string{"$top": {"0"}})
	is.True(err != nil)

	_, err = WithParams(map[string][]string{"$skip": {"-1"}})
	is.True(err != nil)
}

func TestWithParamsRejectsBadOrderBy(t *testing.T) {
	is := is.New(t)

	_, err := WithParams(map[string][]string{"$orderby": {"phenomenonTime sideways"}})
	is.True(err != nil)
}

func TestWithParamsSplitsExpandAndSelect(t *testing.T) {
	is := is.New(t)

	conditions, err := WithParams(map[string][]string{
		"$expand": {"Datastream, FeatureOfInterest"},
		"$select": {"result,phenomenonTime"},
	})
	is.NoErr(err)

	m := applyConditions(conditions)
	is.Equal(m["expand"], []string{"Datastream", "FeatureOfInterest"})
	is.Equal(m["select"], []string{"result", "phenomenonTime"})
}
