package partproducer

import (
	"context"
	"fmt"

	"github.com/nikhildabhi034/assembly-inventory/internal/model"
	"github.com/nikhildabhi034/assembly-inventory/platform/kafka"
)

type Converter interface {
	BuiltPartToPayload(m model.BuiltPart) ([]byte, error)
}

type service struct {
	producer kafka.Producer
	conv     Converter
}

func NewPartProducer(producer kafka.Producer, conv Converter) *service {
	return &service{producer: producer, conv: conv}
}

func (s *service) SendPartAssembled(ctx context.Context, event model.BuiltPart) error {
	payload, err := s.conv.BuiltPartToPayload(event)
	if err != nil {
		return fmt.Errorf("converter built_part_to_payload error: %w", err)
	}

	if err := s.producer.Send(ctx, event.PartID[:], payload); err != nil {
		return fmt.Errorf("producer to part.assembled topic error: %w", err)
	}

	return nil
}
