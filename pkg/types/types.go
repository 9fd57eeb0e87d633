package types

import (
	"encoding/json"
	"time"
)

type ObservationsCreated struct {
	DeviceID  string    `json:"deviceId,omitempty"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func (o *ObservationsCreated) Body() []byte {
	b, _ := json.Marshal(o)
	return b
}
func (o *ObservationsCreated) ContentType() string {
	return "application/vnd.diwise.observationscreated+json"
}
func (o *ObservationsCreated) TopicName() string {
	return "observations.created"
}
