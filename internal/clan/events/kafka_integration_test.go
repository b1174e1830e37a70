//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"clanhub/internal/clan/models"
	id "clanhub/pkg/domain"
	"clanhub/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	brokers []string
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers
}

func (s *KafkaPublisherSuite) TestPublishedEventIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	topic := "clan-events-" + id.NewClanID().String()

	p, err := NewKafkaPublisher(s.brokers, topic)
	s.Require().NoError(err)
	defer p.Close()
	s.Require().NoError(p.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(p.EnsureTopic(ctx, 1, 1), "second call must tolerate an existing topic")
	s.Require().NoError(p.Ping(ctx))

	region := "EU"
	event := models.LifecycleEvent{
		Type:       models.EventClanCreated,
		ClanID:     id.NewClanID(),
		Name:       "Alpha",
		Region:     &region,
		RequestID:  "req-1",
		OccurredAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	s.Require().NoError(p.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)

	rec := records[0]
	s.Equal(event.ClanID.String(), string(rec.Key))
	s.Require().Len(rec.Headers, 1)
	s.Equal(string(models.EventClanCreated), string(rec.Headers[0].Value))

	var got models.LifecycleEvent
	s.Require().NoError(json.Unmarshal(rec.Value, &got))
	s.Equal(event.ClanID, got.ClanID)
	s.Equal("Alpha", got.Name)
	s.True(event.OccurredAt.Equal(got.OccurredAt))
}
