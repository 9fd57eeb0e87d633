package observations

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/diwise/iot-observations/pkg/types"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/diwise/senml"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("iot-observations")
var meter = otel.Meter("iot-observations")

// NewMeasurementsHandler consumes accepted senml packs and turns each
// record into an observation on the datastream bound to the sending
// device.
func NewMeasurementsHandler(app App, msgCtx messaging.MsgContext) messaging.TopicMessageHandler {
	ingested, _ := meter.Int64Counter("observations.ingested", metric.WithDescription("number of observations ingested from device messages"))

	return func(ctx context.Context, d messaging.IncomingTopicMessage, logger *slog.Logger) {
		var err error

		ctx, span := tracer.Start(ctx, d.TopicName())
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logger, ctx)

		msg := struct {
			Pack      senml.Pack `json:"pack"`
			Timestamp time.Time  `json:"timestamp"`
		}{}

		err = json.Unmarshal(d.Body(), &msg)
		if err != nil {
			log.Error("could not unmarshal message", "err", err.Error())
			return
		}

		if msg.Pack.Validate() != nil {
			log.Error("message contains an invalid package")
			return
		}

		deviceID, ok := extractDeviceID(msg.Pack)
		if !ok {
			log.Debug("no deviceID found in package")
			return
		}

		observations := convPack(msg.Pack)
		if len(observations) == 0 {
			log.Debug("no observations found in pack")
			return
		}

		errs := make([]error, 0)
		count := 0

		for _, o := range observations {
			err := app.AddObservationFromDevice(ctx, deviceID, o)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					log.Debug("no datastream bound to device", "device_id", deviceID)
					continue
				}
				errs = append(errs, err)
				continue
			}
			count++
		}

		if err = errors.Join(errs...); err != nil {
			log.Error("could not store all observations", "err", err.Error())
			return
		}

		if count > 0 {
			ingested.Add(ctx, int64(count))

			err = msgCtx.PublishOnTopic(ctx, &types.ObservationsCreated{
				DeviceID:  deviceID,
				Count:     count,
				Timestamp: time.Now().UTC(),
			})
			if err != nil {
				log.Error("could not publish observations.created", "err", err.Error())
			}
		}
	}
}

func extractDeviceID(pack senml.Pack) (string, bool) {
	r, ok := pack.GetRecord(senml.FindByName("0"))
	if !ok {
		return "", false
	}
	return strings.Split(r.Name, "/")[0], true
}

func convPack(pack senml.Pack) []Observation {
	observations := make([]Observation, 0, len(pack))

	for _, r := range pack {
		n, err := strconv.Atoi(r.Name)
		if err != nil || n == 0 {
			continue
		}

		rec, ok := pack.GetRecord(senml.FindByName(r.Name))
		if !ok {
			continue
		}

		ts, _ := rec.GetTime()
		if ts.IsZero() {
			continue
		}

		o := Observation{
			PhenomenonTime: ts.UTC(),
		}

		if rec.Value != nil {
			o.Result = NewNumberResult(*rec.Value)
		} else if rec.BoolValue != nil {
			o.Result = NewBoolResult(*rec.BoolValue)
		} else if rec.StringValue != "" {
			o.Result = NewStringResult(rec.StringValue)
		} else {
			continue
		}

		if rec.Unit != "" {
			o.Parameters = map[string]any{"unit": rec.Unit}
		}

		observations = append(observations, o)
	}

	return observations
}
