package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	app "github.com/diwise/iot-observations/internal/app/observations"
	"github.com/diwise/iot-observations/internal/app/observations/filter"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/jackc/pgx/v5"
)

func withDatastreamID(id string) app.ConditionFunc {
	return func(m map[string]any) map[string]any {
		m["datastream_id"] = id
		return m
	}
}

func withFeatureID(id string) app.ConditionFunc {
	return func(m map[string]any) map[string]any {
		m["feature_id"] = id
		return m
	}
}

// withThingID scopes observations to every datastream of one thing
func withThingID(id string) app.ConditionFunc {
	return func(m map[string]any) map[string]any {
		m["thing_id"] = id
		return m
	}
}

const observationColumns = `o.id, o.datastream_id, o.feature_id, o.phenomenon_time, o.result_time,
	o.result, o.result_quality, o.parameters, o.client_ts, o.server_ts, o.sync_batch_id`

func (db *Db) retrieveObservation(ctx context.Context, id string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT %s FROM observations o WHERE o.id=@id;`, observationColumns)

	row := db.pool.QueryRow(ctx, query, pgx.NamedArgs{"id": id})

	o, err := scanObservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app.ErrNotFound
		}
		return nil, err
	}

	return json.Marshal(o)
}

func (db *Db) queryObservations(ctx context.Context, conditions ...app.ConditionFunc) (app.QueryResult, error) {
	log := logging.GetFromContext(ctx)

	c := newConditions(conditions...)

	args := pgx.NamedArgs{}
	where := "WHERE 1=1"
	joins := make([]string, 0)

	if id, ok := c["id"]; ok {
		where += " AND o.id=@id"
		args["id"] = id
	}

	if dsID, ok := c["datastream_id"]; ok {
		where += " AND o.datastream_id=@datastream_id"
		args["datastream_id"] = dsID
	}

	if featureID, ok := c["feature_id"]; ok {
		where += " AND o.feature_id=@feature_id"
		args["feature_id"] = featureID
	}

	if thingID, ok := c["thing_id"]; ok {
		where += ` AND o.datastream_id IN (
			SELECT c.entity_id FROM entities c
			JOIN entity_relations r ON r.child=c.node_id
			JOIN entities p ON p.node_id=r.parent
			WHERE p.entity_type='Things' AND p.entity_id=@thing_id AND c.entity_type='Datastreams')`
		args["thing_id"] = thingID
	}

	if tenants, ok := c["tenants"]; ok {
		joins = append(joins, entityMappings[app.EntityTypeObservation].joins["datastream"])
		where += " AND ds.tenant=ANY(@tenants)"
		args["tenants"] = tenants
	}

	if expr, ok := c["filter"]; ok {
		condition, filterJoins, err := translateFilter(expr.(filter.Expr), app.EntityTypeObservation, args)
		if err != nil {
			return app.QueryResult{}, err
		}
		where += " AND " + condition
		for _, j := range filterJoins {
			if !contains(joins, j) {
				joins = append(joins, j)
			}
		}
	}

	orderBy, err := orderByClause(c, app.EntityTypeObservation, "o.phenomenon_time, o.id")
	if err != nil {
		return app.QueryResult{}, err
	}

	query := fmt.Sprintf(
		`SELECT %s, count(*) OVER () AS total FROM observations o %s %s %s OFFSET @offset LIMIT @limit;`,
		observationColumns, strings.Join(joins, " "), where, orderBy,
	)
	args["offset"] = c["offset"]
	args["limit"] = c["limit"]

	rows, err := db.pool.Query(ctx, query, args)
	if err != nil {
		log.Error("could not execute query", "err", err.Error())
		return app.QueryResult{}, err
	}
	defer rows.Close()

	data := make([][]byte, 0)
	var total int64

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return app.QueryResult{}, err
		}

		o, err := scanObservationRow(rows, &total)
		if err != nil {
			return app.QueryResult{}, err
		}

		b, err := json.Marshal(o)
		if err != nil {
			return app.QueryResult{}, err
		}
		data = append(data, b)
	}

	if err := rows.Err(); err != nil {
		return app.QueryResult{}, err
	}

	return app.QueryResult{
		Data:       data,
		Count:      len(data),
		Limit:      c["limit"].(int),
		Offset:     c["offset"].(int),
		TotalCount: total,
	}, nil
}

type observationRow struct {
	ID             string
	DatastreamID   string
	FeatureID      *string
	PhenomenonTime time.Time
	ResultTime     *time.Time
	Result         json.RawMessage
	ResultQuality  json.RawMessage
	Parameters     json.RawMessage
	ClientTS       *time.Time
	ServerTS       time.Time
	SyncBatchID    *string
}

func scanObservation(row pgx.Row) (app.Observation, error) {
	var r observationRow
	err := row.Scan(
		&r.ID, &r.DatastreamID, &r.FeatureID, &r.PhenomenonTime, &r.ResultTime,
		&r.Result, &r.ResultQuality, &r.Parameters, &r.ClientTS, &r.ServerTS, &r.SyncBatchID,
	)
	if err != nil {
		return app.Observation{}, err
	}
	return r.toObservation()
}

func scanObservationRow(rows pgx.Rows, total *int64) (app.Observation, error) {
	var r observationRow
	err := rows.Scan(
		&r.ID, &r.DatastreamID, &r.FeatureID, &r.PhenomenonTime, &r.ResultTime,
		&r.Result, &r.ResultQuality, &r.Parameters, &r.ClientTS, &r.ServerTS, &r.SyncBatchID,
		total,
	)
	if err != nil {
		return app.Observation{}, err
	}
	return r.toObservation()
}

func (r observationRow) toObservation() (app.Observation, error) {
	o := app.Observation{
		ID:              r.ID,
		DatastreamID:    r.DatastreamID,
		PhenomenonTime:  r.PhenomenonTime,
		ResultTime:      r.ResultTime,
		ResultQuality:   r.ResultQuality,
		ClientTimestamp: r.ClientTS,
		ServerTimestamp: &r.ServerTS,
	}

	if r.FeatureID != nil {
		o.FeatureOfInterestID = *r.FeatureID
	}
	if r.SyncBatchID != nil {
		o.SyncBatchID = *r.SyncBatchID
	}

	if err := json.Unmarshal(r.Result, &o.Result); err != nil {
		return app.Observation{}, err
	}

	if len(r.Parameters) > 0 {
		if err := json.Unmarshal(r.Parameters, &o.Parameters); err != nil {
			return app.Observation{}, err
		}
	}

	return o, nil
}

func (db *Db) GetDatastream(ctx context.Context, id string) (app.Datastream, error) {
	var data json.RawMessage

	err := db.pool.QueryRow(ctx,
		`SELECT data FROM entities WHERE entity_type='Datastreams' AND entity_id=@entity_id;`,
		pgx.NamedArgs{"entity_id": id},
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return app.Datastream{}, app.ErrNotFound
		}
		return app.Datastream{}, err
	}

	ds := app.Datastream{}
	if err := json.Unmarshal(data, &ds); err != nil {
		return app.Datastream{}, err
	}

	return ds, nil
}

func (db *Db) GetDatastreamByDevice(ctx context.Context, deviceID string) (app.Datastream, error) {
	var data json.RawMessage

	err := db.pool.QueryRow(ctx,
		`SELECT data FROM entities WHERE entity_type='Datastreams' AND data->>'refDevice'=@device LIMIT 1;`,
		pgx.NamedArgs{"device": deviceID},
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return app.Datastream{}, app.ErrNotFound
		}
		return app.Datastream{}, err
	}

	ds := app.Datastream{}
	if err := json.Unmarshal(data, &ds); err != nil {
		return app.Datastream{}, err
	}

	return ds, nil
}

// InsertObservation stores a single observation. The returned bool is
// false when an observation with the same datastream, phenomenon time
// and result already exists, in which case the insert is a no op.
func (db *Db) InsertObservation(ctx context.Context, o app.Observation) (bool, error) {
	created, err := db.insertObservation(ctx, o)
	if err != nil && isMissingPartitionErr(err) {
		if err = db.createPartitionFor(ctx, o.PhenomenonTime); err != nil {
			return false, err
		}
		created, err = db.insertObservation(ctx, o)
	}
	if err != nil {
		return false, err
	}

	if created {
		db.markDirty(o.DatastreamID)
	}

	return created, nil
}

func (db *Db) insertObservation(ctx context.Context, o app.Observation) (bool, error) {
	args, err := observationArgs(o)
	if err != nil {
		return false, err
	}

	insert := `INSERT INTO observations(
			id, datastream_id, feature_id, phenomenon_time, result_time,
			result, result_canonical, result_quality, parameters, client_ts, server_ts, sync_batch_id)
		   VALUES (
			@id, @datastream_id, @feature_id, @phenomenon_time, @result_time,
			@result, @result_canonical, @result_quality, @parameters, @client_ts, @server_ts, @sync_batch_id)
		   ON CONFLICT (datastream_id, phenomenon_time, result_canonical) DO NOTHING;`

	tag, err := db.pool.Exec(ctx, insert, args)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func observationArgs(o app.Observation) (pgx.NamedArgs, error) {
	result, err := o.Result.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var parameters *string
	if len(o.Parameters) > 0 {
		b, err := json.Marshal(o.Parameters)
		if err != nil {
			return nil, err
		}
		s := string(b)
		parameters = &s
	}

	var quality *string
	if len(o.ResultQuality) > 0 {
		s := string(o.ResultQuality)
		quality = &s
	}

	var featureID *string
	if o.FeatureOfInterestID != "" {
		featureID = &o.FeatureOfInterestID
	}

	var syncBatchID *string
	if o.SyncBatchID != "" {
		syncBatchID = &o.SyncBatchID
	}

	// a reconciled observation keeps the timestamp its sync batch arrived
	// with, anything else is stamped on the way in
	serverTS := time.Now().UTC()
	if o.ServerTimestamp != nil {
		serverTS = *o.ServerTimestamp
	}

	return pgx.NamedArgs{
		"id":               o.ID,
		"datastream_id":    o.DatastreamID,
		"feature_id":       featureID,
		"phenomenon_time":  o.PhenomenonTime,
		"result_time":      o.ResultTime,
		"result":           string(result),
		"result_canonical": o.Result.Canonical(),
		"result_quality":   quality,
		"parameters":       parameters,
		"client_ts":        o.ClientTimestamp,
		"server_ts":        serverTS,
		"sync_batch_id":    syncBatchID,
	}, nil
}

// BulkInsertObservations loads a validated batch through the bulk copy
// protocol inside a single transaction. The batch commits in full or
// not at all; a duplicate anywhere rejects the whole batch.
func (db *Db) BulkInsertObservations(ctx context.Context, observations []app.Observation) error {
	log := logging.GetFromContext(ctx)

	if len(observations) == 0 {
		return nil
	}

	if err := db.ensurePartitionsFor(ctx, observations); err != nil {
		return err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows := make([][]any, 0, len(observations))
	streams := make(map[string]struct{})

	for _, o := range observations {
		if err := ctx.Err(); err != nil {
			return err
		}

		args, err := observationArgs(o)
		if err != nil {
			return err
		}

		rows = append(rows, []any{
			args["id"], args["datastream_id"], args["feature_id"],
			args["phenomenon_time"], args["result_time"],
			args["result"], args["result_canonical"], args["result_quality"],
			args["parameters"], args["client_ts"], args["server_ts"], args["sync_batch_id"],
		})
		streams[o.DatastreamID] = struct{}{}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"observations"},
		[]string{
			"id", "datastream_id", "feature_id", "phenomenon_time", "result_time",
			"result", "result_canonical", "result_quality", "parameters", "client_ts", "server_ts", "sync_batch_id",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		if isDuplicateKeyErr(err) {
			return app.ErrAlreadyExists
		}
		log.Error("bulk load failed", "err", err.Error())
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	for id := range streams {
		db.markDirty(id)
	}

	return nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
