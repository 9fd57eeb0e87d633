package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	app "github.com/diwise/iot-observations/internal/app/observations"
)

// navigable lists the related collections an entity links out to. The
// links are derived at response time and never persisted.
var navigable = map[app.EntityType][]string{
	app.EntityTypeThing:              {"Datastreams", "Locations", "HistoricalLocations"},
	app.EntityTypeLocation:           {"Things", "HistoricalLocations"},
	app.EntityTypeHistoricalLocation: {"Things", "Locations"},
	app.EntityTypeSensor:             {"Datastreams"},
	app.EntityTypeObservedProperty:   {"Datastreams"},
	app.EntityTypeDatastream:         {"Observations", "Things", "Sensors", "ObservedProperties"},
	app.EntityTypeFeatureOfInterest:  {"Observations"},
	app.EntityTypeObservation:        {"Datastreams", "FeaturesOfInterest"},
}

func selfLink(base string, et app.EntityType, id string) string {
	return fmt.Sprintf("%s/v1.1/%s(%s)", base, et, id)
}

func decorate(m map[string]any, base string, et app.EntityType) {
	id, ok := m["@iot.id"].(string)
	if !ok || id == "" {
		return
	}

	self := selfLink(base, et, id)
	m["@iot.selfLink"] = self

	for _, related := range navigable[et] {
		m[related+"@iot.navigationLink"] = self + "/" + related
	}
}

// applySelect prunes the entity down to the requested properties. The
// identity and the annotations survive a projection.
func applySelect(m map[string]any, sel string) {
	if sel == "" {
		return
	}

	keep := map[string]struct{}{}
	for _, p := range strings.Split(sel, ",") {
		if p = strings.TrimSpace(p); p != "" {
			keep[strings.ToLower(p)] = struct{}{}
		}
	}

	for k := range m {
		if strings.HasPrefix(k, "@iot.") || strings.Contains(k, "@iot.navigationLink") {
			continue
		}
		if _, ok := keep[strings.ToLower(k)]; !ok {
			delete(m, k)
		}
	}
}

type collectionResponse struct {
	Count    *int64           `json:"@iot.count,omitempty"`
	Value    []map[string]any `json:"value"`
	NextLink *string          `json:"@iot.nextLink,omitempty"`
}

func newCollectionResponse(r *http.Request, base string, et app.EntityType, result app.QueryResult) (collectionResponse, error) {
	value := make([]map[string]any, 0, len(result.Data))

	for _, b := range result.Data {
		m := make(map[string]any)
		if err := json.Unmarshal(b, &m); err != nil {
			return collectionResponse{}, err
		}
		decorate(m, base, et)
		applySelect(m, r.URL.Query().Get("$select"))
		value = append(value, m)
	}

	response := collectionResponse{Value: value}

	if strings.EqualFold(r.URL.Query().Get("$count"), "true") {
		total := result.TotalCount
		response.Count = &total
	}

	if int64(result.Offset+result.Count) < result.TotalCount {
		response.NextLink = nextLink(r.URL, result.Offset+result.Limit, result.Limit)
	}

	return response, nil
}

func nextLink(u *url.URL, offset, limit int) *string {
	next := *u
	query := next.Query()
	query.Set("$skip", strconv.Itoa(offset))
	query.Set("$top", strconv.Itoa(limit))
	next.RawQuery = query.Encode()
	s := next.String()
	return &s
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}

func (e apiError) Byte() []byte {
	b, _ := json.Marshal(e)
	return b
}
