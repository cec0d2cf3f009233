package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/shaiso/dataflow/internal/table"
)

// DefaultMaxRecords — сколько сообщений читается из топика по умолчанию.
const DefaultMaxRecords = 1000

// loadKafka читает сообщения топика с начала, пока не наберётся MaxRecords
// или не истечёт время. JSON-объекты раскладываются по колонкам, остальные
// сообщения попадают в колонку value.
func loadKafka(ctx context.Context, spec Spec) (*Result, error) {
	max := spec.MaxRecords
	if max <= 0 {
		max = DefaultMaxRecords
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(spec.Brokers...),
		kgo.ConsumeTopics(spec.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	defer client.Close()

	var (
		records []map[string]any
		size    int64
	)

	for len(records) < max {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			break
		}
		if ctx.Err() != nil {
			// Время вышло — возвращаем то, что успели прочитать
			break
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			if errors.Is(errs[0].Err, context.DeadlineExceeded) || errors.Is(errs[0].Err, context.Canceled) {
				break
			}
			return nil, fmt.Errorf("fetch %s: %w", spec.Topic, errs[0].Err)
		}

		iter := fetches.RecordIter()
		for !iter.Done() && len(records) < max {
			rec := iter.Next()
			size += int64(len(rec.Value))
			records = append(records, recordRow(rec))
		}
	}

	return &Result{
		Table:  table.FromRecords(records, nil),
		Origin: "kafka://" + spec.Topic,
		Bytes:  size,
	}, nil
}

// recordRow превращает сообщение Kafka в строку таблицы.
func recordRow(rec *kgo.Record) map[string]any {
	if obj, err := decodeObject(rec.Value); err == nil {
		return obj
	}
	row := map[string]any{
		"value":     string(rec.Value),
		"partition": rec.Partition,
		"offset":    rec.Offset,
		"timestamp": rec.Timestamp.UTC().Format(time.RFC3339),
	}
	if len(rec.Key) > 0 {
		row["key"] = string(rec.Key)
	}
	return row
}
