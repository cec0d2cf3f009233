package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kfake"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestLoad_Kafka(t *testing.T) {
	cluster, err := kfake.NewCluster(kfake.NumBrokers(1), kfake.SeedTopics(1, "orders"))
	require.NoError(t, err)
	defer cluster.Close()

	producer, err := kgo.NewClient(kgo.SeedBrokers(cluster.ListenAddrs()...))
	require.NoError(t, err)
	defer producer.Close()

	ctx := context.Background()
	for _, v := range []string{`{"id": 1, "city": "Paris"}`, `{"id": 2, "city": "Rome"}`, `plain text`} {
		res := producer.ProduceSync(ctx, &kgo.Record{Topic: "orders", Value: []byte(v)})
		require.NoError(t, res.FirstErr())
	}

	res, err := newLoader(t, "").Load(ctx, Spec{
		Kind:       KindKafka,
		Brokers:    cluster.ListenAddrs(),
		Topic:      "orders",
		MaxRecords: 3,
		Timeout:    10 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Table.NumRows())
	assert.True(t, res.Table.Has("city"))
	assert.True(t, res.Table.Has("value"))
	assert.Equal(t, "Paris", res.Table.Value(0, "city"))
	assert.Equal(t, "plain text", res.Table.Value(2, "value"))
}
