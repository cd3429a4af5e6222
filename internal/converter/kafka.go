package converter

import (
	"encoding/json"
	"fmt"

	"github.com/nikhildabhi034/assembly-inventory/internal/model"
)

type kafkaConverter struct{}

func NewKafkaConverter() *kafkaConverter { return &kafkaConverter{} }

type partAssembledRecord struct {
	EventUUID string `json:"event_uuid"`
	PartUUID  string `json:"part_uuid"`
	PartName  string `json:"part_name"`
	Units     int64  `json:"units"`
}

func (c *kafkaConverter) BuiltPartToPayload(m model.BuiltPart) ([]byte, error) {
	payload, err := json.Marshal(partAssembledRecord{
		EventUUID: m.EventID.String(),
		PartUUID:  m.PartID.String(),
		PartName:  m.Name,
		Units:     m.Units,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal part assembled record: %w", err)
	}

	return payload, nil
}
