package commands

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"galleria/contexts/gallery/voting-registry/ports"
)

func (uc *RegistryUseCase) newEnvelope(
	ctx context.Context,
	eventType string,
	subjectID int64,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Registry events are partitioned by subject for stable ordering on
	// subject-scoped observers.
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "voting-registry",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "subject_id",
		PartitionKey:     strconv.FormatInt(subjectID, 10),
		Data:             payload,
	}, nil
}
