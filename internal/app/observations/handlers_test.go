package observations

import (
	"context"
	"log/slog"
	"testing"

	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/matryer/is"
)

func TestMeasurementBecomesObservation(t *testing.T) {
	ctx := context.Background()
	is := is.New(t)

	a := measurementsAppMock()
	NewMeasurementsHandler(a, msgCtxMock())(ctx, msgMock(temperatureMsg), slog.Default())

	is.Equal(len(a.AddObservationFromDeviceCalls()), 1)

	call := a.AddObservationFromDeviceCalls()[0]
	is.Equal(call.DeviceID, "c5a2ae17c239")

	v, ok := call.O.Result.Number()
	is.True(ok)
	is.Equal(v, 21.0)
	is.Equal(call.O.Parameters["unit"], "Cel")
	is.True(!call.O.PhenomenonTime.IsZero())
}

func TestMeasurementFromUnboundDeviceIsIgnored(t *testing.T) {
	ctx := context.Background()
	is := is.New(t)

	a := measurementsAppMock()
	a.AddObservationFromDeviceFunc = func(ctx context.Context, deviceID string, o Observation) error {
		return ErrNotFound
	}

	m := msgCtxMock()
	NewMeasurementsHandler(a, m)(ctx, msgMock(temperatureMsg), slog.Default())

	// nothing stored, nothing published
	is.Equal(len(m.PublishOnTopicCalls()), 0)
}

func TestInvalidMessageIsDropped(t *testing.T) {
	ctx := context.Background()
	is := is.New(t)

	a := measurementsAppMock()
	NewMeasurementsHandler(a, msgCtxMock())(ctx, msgMock(`{"pack": "not a pack"}`), slog.Default())

	is.Equal(len(a.AddObservationFromDeviceCalls()), 0)
}

func TestIngestionPublishesObservationsCreated(t *testing.T) {
	ctx := context.Background()
	is := is.New(t)

	a := measurementsAppMock()
	m := msgCtxMock()
	NewMeasurementsHandler(a, m)(ctx, msgMock(temperatureMsg), slog.Default())

	is.Equal(len(m.PublishOnTopicCalls()), 1)
	is.Equal(m.PublishOnTopicCalls()[0].Message.TopicName(), "observations.created")
}

func measurementsAppMock() *AppMock {
	return &AppMock{
		AddObservationFromDeviceFunc: func(ctx context.Context, deviceID string, o Observation) error {
			return nil
		},
	}
}

func msgCtxMock() *messaging.MsgContextMock {
	return &messaging.MsgContextMock{
		PublishOnTopicFunc: func(ctx context.Context, message messaging.TopicMessage) error {
			return nil
		},
	}
}

func msgMock(body string) *messaging.IncomingTopicMessageMock {
	return &messaging.IncomingTopicMessageMock{
		BodyFunc: func() []byte {
			return []byte(body)
		},
		TopicNameFunc: func() string {
			return "message.accepted"
		},
		ContentTypeFunc: func() string {
			return "application/json"
		},
	}
}

var temperatureMsg = `{"pack":[{"bn":"c5a2ae17c239/3303/","bt":1730124834,"n":"0","vs":"urn:oma:lwm2m:ext:3303"},{"n":"5700","u":"Cel","v":21}],"timestamp":"2024-10-28T14:13:54.532480028Z"}`
