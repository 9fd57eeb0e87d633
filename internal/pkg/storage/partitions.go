package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	app "github.com/diwise/iot-observations/internal/app/observations"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/jackc/pgx/v5"
)

// EnsurePartitions pre-creates observation partitions from the current
// period up to the configured number of periods ahead, so the steady
// state ingest path never has to create one synchronously.
func (db *Db) EnsurePartitions(ctx context.Context) error {
	start := db.periodStart(time.Now().UTC())

	for i := 0; i <= db.engine.PartitionsAhead; i++ {
		if err := db.createPartition(ctx, start); err != nil {
			return err
		}
		start = db.nextPeriod(start)
	}

	return nil
}

// createPartitionFor covers the period a stray timestamp falls into,
// used when an insert hits a time range no partition covers yet.
func (db *Db) createPartitionFor(ctx context.Context, t time.Time) error {
	return db.createPartition(ctx, db.periodStart(t.UTC()))
}

func (db *Db) ensurePartitionsFor(ctx context.Context, observations []app.Observation) error {
	periods := make(map[time.Time]struct{})
	for _, o := range observations {
		periods[db.periodStart(o.PhenomenonTime.UTC())] = struct{}{}
	}

	for start := range periods {
		if err := db.createPartition(ctx, start); err != nil {
			return err
		}
	}

	return nil
}

func (db *Db) createPartition(ctx context.Context, start time.Time) error {
	log := logging.GetFromContext(ctx)

	end := db.nextPeriod(start)

	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s PARTITION OF observations FOR VALUES FROM ('%s') TO ('%s');`,
		db.partitionName(start),
		start.Format(time.RFC3339),
		end.Format(time.RFC3339),
	)

	_, err := db.pool.Exec(ctx, ddl)
	if err != nil {
		// two sessions can race past IF NOT EXISTS; the partition exists
		// either way
		if isDuplicateTableErr(err) {
			return nil
		}
		log.Error("could not create partition", "partition", db.partitionName(start), "err", err.Error())
		return err
	}

	return nil
}

func (db *Db) periodStart(t time.Time) time.Time {
	if db.engine.PartitionGranularity == "day" {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (db *Db) nextPeriod(start time.Time) time.Time {
	if db.engine.PartitionGranularity == "day" {
		return start.AddDate(0, 0, 1)
	}
	return start.AddDate(0, 1, 0)
}

func (db *Db) partitionName(start time.Time) string {
	if db.engine.PartitionGranularity == "day" {
		return fmt.Sprintf("observations_y%04dm%02dd%02d", start.Year(), start.Month(), start.Day())
	}
	return fmt.Sprintf("observations_y%04dm%02d", start.Year(), start.Month())
}

// RunPartitionMaintenance keeps future partitions pre-created until the
// context is cancelled.
func (db *Db) RunPartitionMaintenance(ctx context.Context) {
	log := logging.GetFromContext(ctx)

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := db.EnsurePartitions(ctx); err != nil {
				log.Error("partition maintenance failed", "err", err.Error())
			}
		}
	}
}

// RunExtentRefresh periodically recomputes the derived temporal and
// spatial extents of datastreams that received observations since the
// previous pass. Readers of a datastream may see extents that lag its
// observations by up to one refresh interval.
func (db *Db) RunExtentRefresh(ctx context.Context) {
	log := logging.GetFromContext(ctx)

	interval := time.Duration(db.engine.ExtentRefreshSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range db.drainDirty() {
				if err := db.refreshExtents(ctx, id); err != nil {
					log.Error("extent refresh failed", "datastream", id, "err", err.Error())
					db.markDirty(id)
				}
			}
		}
	}
}

func (db *Db) refreshExtents(ctx context.Context, datastreamID string) error {
	var phenoStart, phenoEnd, resultStart, resultEnd *time.Time

	err := db.pool.QueryRow(ctx, `
		SELECT min(phenomenon_time), max(phenomenon_time), min(result_time), max(result_time)
		FROM observations WHERE datastream_id=@id;`,
		pgx.NamedArgs{"id": datastreamID},
	).Scan(&phenoStart, &phenoEnd, &resultStart, &resultEnd)
	if err != nil {
		return err
	}

	var minX, minY, maxX, maxY *float64

	err = db.pool.QueryRow(ctx, `
		SELECT min(e.location[0]), min(e.location[1]), max(e.location[0]), max(e.location[1])
		FROM observations o
		JOIN entities e ON e.entity_type='FeaturesOfInterest' AND e.entity_id=o.feature_id
		WHERE o.datastream_id=@id AND e.location IS NOT NULL;`,
		pgx.NamedArgs{"id": datastreamID},
	).Scan(&minX, &minY, &maxX, &maxY)
	if err != nil {
		return err
	}

	patch := struct {
		PhenomenonTimeStart *time.Time    `json:"phenomenonTimeStart,omitempty"`
		PhenomenonTimeEnd   *time.Time    `json:"phenomenonTimeEnd,omitempty"`
		ResultTimeStart     *time.Time    `json:"resultTimeStart,omitempty"`
		ResultTimeEnd       *time.Time    `json:"resultTimeEnd,omitempty"`
		ObservedArea        *app.Geometry `json:"observedArea,omitempty"`
	}{
		PhenomenonTimeStart: phenoStart,
		PhenomenonTimeEnd:   phenoEnd,
		ResultTimeStart:     resultStart,
		ResultTimeEnd:       resultEnd,
		ObservedArea:        boundingBox(minX, minY, maxX, maxY),
	}

	b, err := json.Marshal(patch)
	if err != nil {
		return err
	}

	// stale extents are replaced wholesale so a datastream whose last
	// observation was deleted loses them again
	_, err = db.pool.Exec(ctx, `
		UPDATE entities SET data = (data
			- 'phenomenonTimeStart' - 'phenomenonTimeEnd'
			- 'resultTimeStart' - 'resultTimeEnd'
			- 'observedArea') || @patch::jsonb,
			modified_on = CURRENT_TIMESTAMP
		WHERE entity_type='Datastreams' AND entity_id=@id;`,
		pgx.NamedArgs{"id": datastreamID, "patch": string(b)},
	)

	return err
}

func boundingBox(minX, minY, maxX, maxY *float64) *app.Geometry {
	if minX == nil || minY == nil || maxX == nil || maxY == nil {
		return nil
	}

	coords, _ := json.Marshal([][][2]float64{{
		{*minX, *minY}, {*maxX, *minY}, {*maxX, *maxY}, {*minX, *maxY}, {*minX, *minY},
	}})

	return &app.Geometry{Type: "Polygon", Coordinates: coords}
}

// RunRetention drops observation partitions that have aged out entirely
// and prunes old historical locations, when retention is configured.
func (db *Db) RunRetention(ctx context.Context) {
	log := logging.GetFromContext(ctx)

	if db.engine.RetentionDays <= 0 && db.engine.HistoricalRetention <= 0 {
		return
	}

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if db.engine.RetentionDays > 0 {
				if err := db.dropExpiredPartitions(ctx); err != nil {
					log.Error("partition retention failed", "err", err.Error())
				}
			}
			if db.engine.HistoricalRetention > 0 {
				if err := db.pruneHistoricalLocations(ctx); err != nil {
					log.Error("historical location retention failed", "err", err.Error())
				}
			}
		}
	}
}

func (db *Db) dropExpiredPartitions(ctx context.Context) error {
	log := logging.GetFromContext(ctx)

	cutoff := time.Now().UTC().AddDate(0, 0, -db.engine.RetentionDays)

	rows, err := db.pool.Query(ctx, `
		SELECT c.relname FROM pg_inherits i
		JOIN pg_class c ON c.oid = i.inhrelid
		JOIN pg_class p ON p.oid = i.inhparent
		WHERE p.relname = 'observations';`)
	if err != nil {
		return err
	}

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		names = append(names, name)
	}
	rows.Close()

	for _, name := range names {
		start, ok := parsePartitionName(name)
		if !ok {
			continue
		}
		if db.nextPeriod(start).After(cutoff) {
			continue
		}

		if _, err := db.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, name)); err != nil {
			return err
		}
		log.Info("dropped expired observation partition", "partition", name)
	}

	return nil
}

func parsePartitionName(name string) (time.Time, bool) {
	var y, m, d int

	if n, err := fmt.Sscanf(name, "observations_y%4dm%2dd%2d", &y, &m, &d); err == nil && n == 3 {
		return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
	}
	if n, err := fmt.Sscanf(name, "observations_y%4dm%2d", &y, &m); err == nil && n == 2 {
		return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

func (db *Db) pruneHistoricalLocations(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -db.engine.HistoricalRetention)

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM entity_relations WHERE parent IN (
			SELECT node_id FROM entities
			WHERE entity_type='HistoricalLocations' AND (data->>'time')::timestamptz < @cutoff
		) OR child IN (
			SELECT node_id FROM entities
			WHERE entity_type='HistoricalLocations' AND (data->>'time')::timestamptz < @cutoff
		);`, pgx.NamedArgs{"cutoff": cutoff})
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM entities
		WHERE entity_type='HistoricalLocations' AND (data->>'time')::timestamptz < @cutoff;`,
		pgx.NamedArgs{"cutoff": cutoff})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
