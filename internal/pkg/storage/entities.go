package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	app "github.com/diwise/iot-observations/internal/app/observations"
	"github.com/diwise/iot-observations/internal/app/observations/filter"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/jackc/pgx/v5"
)

func newConditions(conditions ...app.ConditionFunc) map[string]any {
	m := make(map[string]any)

	for _, f := range conditions {
		m = f(m)
	}

	if _, ok := m["limit"]; !ok {
		m["limit"] = 100
	}

	if _, ok := m["offset"]; !ok {
		m["offset"] = 0
	}

	return m
}

func (db *Db) CreateEntity(ctx context.Context, et app.EntityType, id string, data []byte, tenant string) error {
	log := logging.GetFromContext(ctx)

	if tenant == "" {
		tenant = "default"
	}

	insert := `INSERT INTO entities(entity_type, entity_id, data, location, tenant)
			   VALUES (@entity_type, @entity_id, @data, @location, @tenant);`

	_, err := db.pool.Exec(ctx, insert, pgx.NamedArgs{
		"entity_type": string(et),
		"entity_id":   id,
		"data":        string(data),
		"location":    centroidOf(et, data),
		"tenant":      tenant,
	})
	if err != nil {
		if isDuplicateKeyErr(err) {
			return app.ErrAlreadyExists
		}
		log.Error("could not execute statement", "err", err.Error())
		return err
	}

	return nil
}

func (db *Db) UpdateEntity(ctx context.Context, et app.EntityType, id string, data []byte) error {
	log := logging.GetFromContext(ctx)

	update := `UPDATE entities SET data=@data, location=@location, modified_on=CURRENT_TIMESTAMP
			   WHERE entity_type=@entity_type AND entity_id=@entity_id;`

	tag, err := db.pool.Exec(ctx, update, pgx.NamedArgs{
		"entity_type": string(et),
		"entity_id":   id,
		"data":        string(data),
		"location":    centroidOf(et, data),
	})
	if err != nil {
		log.Error("could not execute statement", "err", err.Error())
		return err
	}
	if tag.RowsAffected() == 0 {
		return app.ErrNotFound
	}

	return nil
}

func (db *Db) DeleteEntity(ctx context.Context, et app.EntityType, id string) error {
	log := logging.GetFromContext(ctx)

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// a thing takes its datastreams with it, and a datastream takes its
	// observations
	if et == app.EntityTypeThing {
		rows, err := tx.Query(ctx, `
			SELECT c.entity_id FROM entities c
			JOIN entity_relations r ON r.child=c.node_id
			JOIN entities p ON p.node_id=r.parent
			WHERE p.entity_type='Things' AND p.entity_id=@entity_id AND c.entity_type='Datastreams';`,
			pgx.NamedArgs{"entity_id": id})
		if err != nil {
			return err
		}

		datastreams := make([]string, 0)
		for rows.Next() {
			var dsID string
			if err := rows.Scan(&dsID); err != nil {
				rows.Close()
				return err
			}
			datastreams = append(datastreams, dsID)
		}
		rows.Close()

		for _, dsID := range datastreams {
			if err := deleteDatastream(ctx, tx, dsID); err != nil {
				return err
			}
		}
	}

	if et == app.EntityTypeDatastream {
		if err := deleteDatastream(ctx, tx, id); err != nil {
			return err
		}
	} else {
		if err := deleteEntityRow(ctx, tx, et, id); err != nil {
			if errors.Is(err, app.ErrNotFound) {
				return err
			}
			log.Error("could not delete entity", "err", err.Error())
			return err
		}
	}

	return tx.Commit(ctx)
}

func deleteDatastream(ctx context.Context, tx pgx.Tx, id string) error {
	_, err := tx.Exec(ctx, `DELETE FROM observations WHERE datastream_id=@id;`, pgx.NamedArgs{"id": id})
	if err != nil {
		return err
	}
	return deleteEntityRow(ctx, tx, app.EntityTypeDatastream, id)
}

func deleteEntityRow(ctx context.Context, tx pgx.Tx, et app.EntityType, id string) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM entity_relations WHERE parent IN (SELECT node_id FROM entities WHERE entity_type=@entity_type AND entity_id=@entity_id)
		   OR child IN (SELECT node_id FROM entities WHERE entity_type=@entity_type AND entity_id=@entity_id);`,
		pgx.NamedArgs{"entity_type": string(et), "entity_id": id})
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM entities WHERE entity_type=@entity_type AND entity_id=@entity_id;`,
		pgx.NamedArgs{"entity_type": string(et), "entity_id": id})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app.ErrNotFound
	}

	return nil
}

func (db *Db) AddRelation(ctx context.Context, parentType app.EntityType, parentID string, childType app.EntityType, childID string) error {
	log := logging.GetFromContext(ctx)

	insert := `INSERT INTO entity_relations(parent, child)
			   VALUES (
				(SELECT node_id FROM entities WHERE entity_type=@parent_type AND entity_id=@parent_id LIMIT 1),
				(SELECT node_id FROM entities WHERE entity_type=@child_type AND entity_id=@child_id LIMIT 1)
			   );`

	_, err := db.pool.Exec(ctx, insert, pgx.NamedArgs{
		"parent_type": string(parentType),
		"parent_id":   parentID,
		"child_type":  string(childType),
		"child_id":    childID,
	})
	if err != nil {
		if isDuplicateKeyErr(err) {
			return nil
		}
		log.Error("could not execute statement", "err", err.Error())
		return err
	}

	return nil
}

func (db *Db) RetrieveEntity(ctx context.Context, et app.EntityType, id string) ([]byte, error) {
	if et == app.EntityTypeObservation {
		return db.retrieveObservation(ctx, id)
	}

	var data json.RawMessage

	err := db.pool.QueryRow(ctx,
		`SELECT data FROM entities WHERE entity_type=@entity_type AND entity_id=@entity_id;`,
		pgx.NamedArgs{"entity_type": string(et), "entity_id": id},
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app.ErrNotFound
		}
		return nil, err
	}

	return data, nil
}

func (db *Db) QueryEntities(ctx context.Context, et app.EntityType, conditions ...app.ConditionFunc) (app.QueryResult, error) {
	if et == app.EntityTypeObservation {
		return db.queryObservations(ctx, conditions...)
	}

	c := newConditions(conditions...)

	args := pgx.NamedArgs{"entity_type": string(et)}
	where := "WHERE e.entity_type=@entity_type"
	joins := make([]string, 0)

	if id, ok := c["id"]; ok {
		where += " AND e.entity_id=@id"
		args["id"] = id
	}

	if tenants, ok := c["tenants"]; ok {
		where += " AND e.tenant=ANY(@tenants)"
		args["tenants"] = tenants
	}

	if expr, ok := c["filter"]; ok {
		condition, filterJoins, err := translateFilter(expr.(filter.Expr), et, args)
		if err != nil {
			return app.QueryResult{}, err
		}
		where += " AND " + condition
		joins = append(joins, filterJoins...)
	}

	orderBy, err := orderByClause(c, et, "e.entity_id")
	if err != nil {
		return app.QueryResult{}, err
	}

	query := fmt.Sprintf(
		`SELECT e.data, count(*) OVER () AS total FROM entities e %s %s %s OFFSET @offset LIMIT @limit;`,
		strings.Join(joins, " "), where, orderBy,
	)
	args["offset"] = c["offset"]
	args["limit"] = c["limit"]

	return db.collect(ctx, query, args, c)
}

func (db *Db) QueryRelated(ctx context.Context, et app.EntityType, id string, related app.EntityType, conditions ...app.ConditionFunc) (app.QueryResult, error) {
	if related == app.EntityTypeObservation {
		// navigating to observations scopes the observation table by the
		// foreign key that matches the parent type
		switch et {
		case app.EntityTypeDatastream:
			conditions = append(conditions, withDatastreamID(id))
		case app.EntityTypeFeatureOfInterest:
			conditions = append(conditions, withFeatureID(id))
		case app.EntityTypeThing:
			conditions = append(conditions, withThingID(id))
		default:
			return app.QueryResult{}, &app.ValidationError{
				Field:   "navigation",
				Message: fmt.Sprintf("%s has no navigation link to Observations", et),
			}
		}
		return db.queryObservations(ctx, conditions...)
	}

	if et == app.EntityTypeObservation {
		// an observation has no row in entity_relations, its navigations
		// resolve through the foreign keys on the observation itself
		var datastreamID string
		var featureID *string

		err := db.pool.QueryRow(ctx,
			`SELECT datastream_id, feature_id FROM observations WHERE id=@id;`,
			pgx.NamedArgs{"id": id},
		).Scan(&datastreamID, &featureID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return app.QueryResult{}, app.ErrNotFound
			}
			return app.QueryResult{}, err
		}

		fk := datastreamID
		if related == app.EntityTypeFeatureOfInterest {
			if featureID == nil {
				c := newConditions(conditions...)
				return app.QueryResult{
					Data: [][]byte{}, Limit: c["limit"].(int), Offset: c["offset"].(int),
				}, nil
			}
			fk = *featureID
		}

		return db.QueryEntities(ctx, related, append(conditions, app.WithID(fk))...)
	}

	c := newConditions(conditions...)

	args := pgx.NamedArgs{
		"related_type": string(related),
		"parent_type":  string(et),
		"parent_id":    id,
	}

	where := `WHERE e.entity_type=@related_type AND EXISTS (
		SELECT 1 FROM entity_relations r
		JOIN entities p ON p.entity_type=@parent_type AND p.entity_id=@parent_id
		WHERE (r.parent=p.node_id AND r.child=e.node_id) OR (r.child=p.node_id AND r.parent=e.node_id)
	)`

	joins := make([]string, 0)

	if expr, ok := c["filter"]; ok {
		condition, filterJoins, err := translateFilter(expr.(filter.Expr), related, args)
		if err != nil {
			return app.QueryResult{}, err
		}
		where += " AND " + condition
		joins = append(joins, filterJoins...)
	}

	orderBy, err := orderByClause(c, related, "e.entity_id")
	if err != nil {
		return app.QueryResult{}, err
	}

	query := fmt.Sprintf(
		`SELECT e.data, count(*) OVER () AS total FROM entities e %s %s %s OFFSET @offset LIMIT @limit;`,
		strings.Join(joins, " "), where, orderBy,
	)
	args["offset"] = c["offset"]
	args["limit"] = c["limit"]

	return db.collect(ctx, query, args, c)
}

func (db *Db) collect(ctx context.Context, query string, args pgx.NamedArgs, c map[string]any) (app.QueryResult, error) {
	log := logging.GetFromContext(ctx)

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

		var b json.RawMessage
		if err := rows.Scan(&b, &total); err != nil {
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

func orderByClause(c map[string]any, et app.EntityType, fallback string) (string, error) {
	property, ok := c["orderby"]
	if !ok {
		return "ORDER BY " + fallback, nil
	}

	mapping := mappingFor(et)
	col, ok := mapping.props[strings.ToLower(property.(string))]
	if !ok {
		return "", fmt.Errorf("cannot order by unknown property [%s]", property)
	}

	direction := "ASC"
	if desc, _ := c["orderdesc"].(bool); desc {
		direction = "DESC"
	}

	expr := col.expr
	if col.kind == kindJSON {
		expr = fmt.Sprintf("(%s #>> '{}')", expr)
	}

	return fmt.Sprintf("ORDER BY %s %s", expr, direction), nil
}

// GetOrCreateFeatureOfInterest inserts the candidate feature unless one
// with an identical geometry already exists, and returns the surviving
// identity. The unique hash index makes the race between two concurrent
// creators resolve to a single row; the loser rereads the winner.
// Equality is exact over the canonical geometry, so conceptually equal
// geometries that differ in floating point representation are distinct
// features. A tolerance based notion of equality would need an agreed
// radius and is deliberately not invented here.
func (db *Db) GetOrCreateFeatureOfInterest(ctx context.Context, f app.FeatureOfInterest) (string, error) {
	hash := geometryHash(f.Feature)

	data, err := json.Marshal(f)
	if err != nil {
		return "", err
	}

	insert := `INSERT INTO entities(entity_type, entity_id, data, location, feature_hash, tenant)
			   VALUES ('FeaturesOfInterest', @entity_id, @data, @location, @feature_hash, @tenant)
			   ON CONFLICT (feature_hash) WHERE feature_hash IS NOT NULL DO NOTHING
			   RETURNING entity_id;`

	var id string
	err = db.pool.QueryRow(ctx, insert, pgx.NamedArgs{
		"entity_id":    f.ID,
		"data":         string(data),
		"location":     pointOf(f.Feature),
		"feature_hash": hash,
		"tenant":       f.Tenant,
	}).Scan(&id)

	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	// lost the race or the feature predates this call; reuse the winner
	err = db.pool.QueryRow(ctx,
		`SELECT entity_id FROM entities WHERE feature_hash=@feature_hash;`,
		pgx.NamedArgs{"feature_hash": hash},
	).Scan(&id)
	if err != nil {
		return "", err
	}

	return id, nil
}

func geometryHash(g app.Geometry) string {
	sum := sha256.Sum256([]byte(g.Canonical()))
	return hex.EncodeToString(sum[:])
}

// centroidOf extracts a native point for the location column from the
// geometry carried by locations and features, so spatial predicates and
// the GIST index have something to work with.
func centroidOf(et app.EntityType, data []byte) *string {
	var key string

	switch et {
	case app.EntityTypeLocation:
		key = "location"
	case app.EntityTypeFeatureOfInterest:
		key = "feature"
	default:
		return nil
	}

	payload := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}

	raw, ok := payload[key]
	if !ok {
		return nil
	}

	g := app.Geometry{}
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil
	}

	return pointOf(g)
}

func pointOf(g app.Geometry) *string {
	coords := make([][2]float64, 0)

	switch g.Type {
	case "Point":
		var c [2]float64
		if err := json.Unmarshal(g.Coordinates, &c); err != nil {
			return nil
		}
		coords = append(coords, c)
	case "LineString", "MultiPoint":
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil
		}
	case "Polygon":
		rings := make([][][2]float64, 0)
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil || len(rings) == 0 {
			return nil
		}
		coords = rings[0]
	default:
		return nil
	}

	if len(coords) == 0 {
		return nil
	}

	var sumX, sumY float64
	for _, c := range coords {
		sumX += c[0]
		sumY += c[1]
	}

	p := fmt.Sprintf("(%f,%f)", sumX/float64(len(coords)), sumY/float64(len(coords)))
	return &p
}
