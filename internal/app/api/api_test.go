package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	app "github.com/diwise/iot-observations/internal/app/observations"
	"github.com/diwise/iot-observations/internal/app/observations/filter"
	"github.com/matryer/is"
)

const testPolicy = `package iot.authz

import rego.v1

default allow := false

allow := response if {
	input.path[0] == "v1.1"
	response := {"tenants": ["default"]}
}
`

func testServer(t *testing.T, a app.App) *httptest.Server {
	t.Helper()

	router, err := Register(context.Background(), a, bytes.NewBufferString(testPolicy))
	if err != nil {
		t.Fatal("failed to set up router:", err)
	}

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func request(t *testing.T, method, url string, body io.Reader) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthEndpointSkipsAuthentication(t *testing.T) {
	is := is.New(t)
	srv := testServer(t, &app.AppMock{})

	resp := request(t, http.MethodGet, srv.URL+"/health", nil)
	is.Equal(resp.StatusCode, http.StatusOK)
}

func TestCollectionQueryPassesTenantsFromThePolicy(t *testing.T) {
	is := is.New(t)
	mock := &app.AppMock{
		QueryEntitiesFunc: func(ctx context.Context, et app.EntityType, params map[string][]string) (app.QueryResult, error) {
			return app.QueryResult{Data: [][]byte{[]byte(`{"@iot.id": "t-1", "name": "soil probe 1"}`)}, Count: 1}, nil
		},
	}
	srv := testServer(t, mock)

	resp := request(t, http.MethodGet, srv.URL+"/v1.1/Things", nil)
	is.Equal(resp.StatusCode, http.StatusOK)

	is.Equal(len(mock.QueryEntitiesCalls()), 1)
	is.Equal(mock.QueryEntitiesCalls()[0].Et, app.EntityTypeThing)
	is.Equal(mock.QueryEntitiesCalls()[0].Params["tenants"], []string{"default"})

	body := struct {
		Value []map[string]any `json:"value"`
	}{}
	is.NoErr(json.NewDecoder(resp.Body).Decode(&body))
	is.Equal(len(body.Value), 1)

	// responses are decorated with self and navigation links, never stored with them
	self, ok := body.Value[0]["@iot.selfLink"].(string)
	is.True(ok)
	is.True(strings.HasSuffix(self, "/v1.1/Things(t-1)"))
	_, ok = body.Value[0]["Datastreams@iot.navigationLink"]
	is.True(ok)
}

func TestSelfLinksFollowTheRequestHost(t *testing.T) {
	is := is.New(t)
	mock := &app.AppMock{
		QueryEntitiesFunc: func(ctx context.Context, et app.EntityType, params map[string][]string) (app.QueryResult, error) {
			return app.QueryResult{Data: [][]byte{[]byte(`{"@iot.id": "t-1", "name": "soil probe 1"}`)}, Count: 1}, nil
		},
	}
	srv := testServer(t, mock)

	selfLinkedFrom := func(host string) string {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1.1/Things", nil)
		is.NoErr(err)
		req.Host = host

		resp, err := http.DefaultClient.Do(req)
		is.NoErr(err)
		defer resp.Body.Close()

		body := struct {
			Value []map[string]any `json:"value"`
		}{}
		is.NoErr(json.NewDecoder(resp.Body).Decode(&body))
		is.Equal(len(body.Value), 1)

		self, ok := body.Value[0]["@iot.selfLink"].(string)
		is.True(ok)
		return self
	}

	// without a configured base url the links are recomputed per request
	is.Equal(selfLinkedFrom("api.example.com"), "http://api.example.com/v1.1/Things(t-1)")
	is.Equal(selfLinkedFrom("sensors.example.org:8080"), "http://sensors.example.org:8080/v1.1/Things(t-1)")
}

func TestUnknownCollectionIs404(t *testing.T) {
	is := is.New(t)
	srv := testServer(t, &app.AppMock{})

	resp := request(t, http.MethodGet, srv.URL+"/v1.1/Widgets", nil)
	is.Equal(resp.StatusCode, http.StatusNotFound)
}

func TestMalformedFilterIs400(t *testing.T) {
	is := is.New(t)
	mock := &app.AppMock{
		QueryEntitiesFunc: func(ctx context.Context, et app.EntityType, params map[string][]string) (app.QueryResult, error) {
			_, err := filter.Parse(params["$filter"][0])
			return app.QueryResult{}, err
		},
	}
	srv := testServer(t, mock)

	resp := request(t, http.MethodGet, srv.URL+"/v1.1/Observations?$filter=result+gt", nil)
	is.Equal(resp.StatusCode, http.StatusBadRequest)

	body := struct {
		Code string `json:"code"`
	}{}
	is.NoErr(json.NewDecoder(resp.Body).Decode(&body))
	is.Equal(body.Code, "filter-syntax-error")
}

func TestRetrieveUnknownEntityIs404(t *testing.T) {
	is := is.New(t)
	mock := &app.AppMock{
		RetrieveEntityFunc: func(ctx context.Context, et app.EntityType, id string) ([]byte, error) {
			return nil, app.ErrNotFound
		},
	}
	srv := testServer(t, mock)

	resp := request(t, http.MethodGet, srv.URL+"/v1.1/Things(nosuchthing)", nil)
	is.Equal(resp.StatusCode, http.StatusNotFound)
}

func TestCreateEntityReturns201WithLocationHeader(t *testing.T) {
	is := is.New(t)
	mock := &app.AppMock{
		CreateEntityFunc: func(ctx context.Context, et app.EntityType, b []byte, tenant string) ([]byte, error) {
			return []byte(`{"@iot.id": "t-1", "name": "soil probe 1", "tenant": "` + tenant + `"}`), nil
		},
	}
	srv := testServer(t, mock)

	resp := request(t, http.MethodPost, srv.URL+"/v1.1/Things", strings.NewReader(`{"name": "soil probe 1"}`))
	is.Equal(resp.StatusCode, http.StatusCreated)
	is.True(strings.HasSuffix(resp.Header.Get("Location"), "/v1.1/Things(t-1)"))

	is.Equal(mock.CreateEntityCalls()[0].Tenant, "default")
}

func TestCreateInvalidEntityIs400(t *testing.T) {
	is := is.New(t)
	mock := &app.AppMock{
		CreateEntityFunc: func(ctx context.Context, et app.EntityType, b []byte, tenant string) ([]byte, error) {
			return nil, &app.ValidationError{Field: "name", Message: "must be provided"}
		},
	}
	srv := testServer(t, mock)

	resp := request(t, http.MethodPost, srv.URL+"/v1.1/Things", strings.NewReader(`{}`))
	is.Equal(resp.StatusCode, http.StatusBadRequest)

	body := struct {
		Code string `json:"code"`
	}{}
	is.NoErr(json.NewDecoder(resp.Body).Decode(&body))
	is.Equal(body.Code, "validation-error")
}

func TestDeleteEntityReturns204(t *testing.T) {
	is := is.New(t)
	mock := &app.AppMock{
		DeleteEntityFunc: func(ctx context.Context, et app.EntityType, id string, tenants []string) error {
			return nil
		},
	}
	srv := testServer(t, mock)

	resp := request(t, http.MethodDelete, srv.URL+"/v1.1/Things(t-1)", nil)
	is.Equal(resp.StatusCode, http.StatusNoContent)
	is.Equal(mock.DeleteEntityCalls()[0].ID, "t-1")
}

func TestSyncRouteTakesTheThingIDFromTheURL(t *testing.T) {
	is := is.New(t)
	mock := &app.AppMock{
		SyncFunc: func(ctx context.Context, req app.SyncRequest, tenants []string) (app.SyncResult, error) {
			return app.SyncResult{Created: 2, Errors: []app.SyncItemError{}}, nil
		},
	}
	srv := testServer(t, mock)

	payload := `{"syncBatchId": "batch-1", "observations": []}`
	resp := request(t, http.MethodPost, srv.URL+"/v1.1/Things(t-1)/Sync", strings.NewReader(payload))
	is.Equal(resp.StatusCode, http.StatusOK)

	is.Equal(mock.SyncCalls()[0].Req.ThingID, "t-1")

	body := app.SyncResult{}
	is.NoErr(json.NewDecoder(resp.Body).Decode(&body))
	is.Equal(body.Created, 2)
}

func TestLinkLocationRoute(t *testing.T) {
	is := is.New(t)
	mock := &app.AppMock{
		LinkThingLocationFunc: func(ctx context.Context, thingID, locationID string) error {
			return nil
		},
	}
	srv := testServer(t, mock)

	resp := request(t, http.MethodPost, srv.URL+"/v1.1/Things(t-1)/Locations", strings.NewReader(`{"@iot.id": "l-1"}`))
	is.Equal(resp.StatusCode, http.StatusCreated)

	is.Equal(mock.LinkThingLocationCalls()[0].ThingID, "t-1")
	is.Equal(mock.LinkThingLocationCalls()[0].LocationID, "l-1")
}

func TestCreateObservationsReturnsSelfLinks(t *testing.T) {
	is := is.New(t)
	mock := &app.AppMock{
		CreateObservationsFunc: func(ctx context.Context, req app.BulkRequest, tenant string) ([]string, error) {
			return []string{"o-1", "o-2"}, nil
		},
	}
	srv := testServer(t, mock)

	payload := `{"Datastream": {"@iot.id": "ds-1"}, "components": ["phenomenonTime", "result"], "dataArray": [["2026-01-01T00:00:00Z", 20.1], ["2026-01-01T01:00:00Z", 20.4]]}`
	resp := request(t, http.MethodPost, srv.URL+"/v1.1/CreateObservations", strings.NewReader(payload))
	is.Equal(resp.StatusCode, http.StatusCreated)

	links := []string{}
	is.NoErr(json.NewDecoder(resp.Body).Decode(&links))
	is.Equal(len(links), 2)
	is.True(strings.HasSuffix(links[0], "/v1.1/Observations(o-1)"))
}

func TestRejectedBatchListsRowErrors(t *testing.T) {
	is := is.New(t)
	mock := &app.AppMock{
		CreateObservationsFunc: func(ctx context.Context, req app.BulkRequest, tenant string) ([]string, error) {
			return nil, &app.BatchError{RowErrors: []app.RowError{{Row: 1, Message: "invalid phenomenonTime"}}}
		},
	}
	srv := testServer(t, mock)

	payload := `{"Datastream": {"@iot.id": "ds-1"}, "components": ["phenomenonTime", "result"], "dataArray": [["oops", 20.1]]}`
	resp := request(t, http.MethodPost, srv.URL+"/v1.1/CreateObservations", strings.NewReader(payload))
	is.Equal(resp.StatusCode, http.StatusBadRequest)

	body := struct {
		Code   string         `json:"code"`
		Errors []app.RowError `json:"errors"`
	}{}
	is.NoErr(json.NewDecoder(resp.Body).Decode(&body))
	is.Equal(body.Code, "batch-rejected")
	is.Equal(len(body.Errors), 1)
	is.Equal(body.Errors[0].Row, 1)
}

func TestPaginationProducesANextLink(t *testing.T) {
	is := is.New(t)
	mock := &app.AppMock{
		QueryEntitiesFunc: func(ctx context.Context, et app.EntityType, params map[string][]string) (app.QueryResult, error) {
			return app.QueryResult{
				Data:       [][]byte{[]byte(`{"@iot.id": "o-1"}`), []byte(`{"@iot.id": "o-2"}`)},
				Count:      2,
				Limit:      2,
				Offset:     0,
				TotalCount: 10,
			}, nil
		},
	}
	srv := testServer(t, mock)

	resp := request(t, http.MethodGet, srv.URL+"/v1.1/Observations?$top=2&$count=true", nil)
	is.Equal(resp.StatusCode, http.StatusOK)

	body := struct {
		Count    *int64 `json:"@iot.count"`
		NextLink string `json:"@iot.nextLink"`
	}{}
	is.NoErr(json.NewDecoder(resp.Body).Decode(&body))
	is.True(body.Count != nil)
	is.Equal(*body.Count, int64(10))
	is.True(strings.Contains(body.NextLink, "skip=2"))
}
