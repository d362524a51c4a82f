package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

type GroupConfig struct {
	Brokers  []string
	GroupID  string
	ClientID string
	Version  string // broker protocol version, e.g. "2.6.0"; empty uses 2.6.0
	Offset   string // "newest" (default) or "oldest" for a group without commits
}

// NewGroup joins the payment status consumer group.
func NewGroup(gc GroupConfig) (sarama.ConsumerGroup, error) {
	cfg, err := saramaConfig(gc)
	if err != nil {
		return nil, err
	}
	return sarama.NewConsumerGroup(gc.Brokers, gc.GroupID, cfg)
}

func saramaConfig(gc GroupConfig) (*sarama.Config, error) {
	cfg := sarama.NewConfig()

	cfg.Version = sarama.V2_6_0_0
	if gc.Version != "" {
		v, err := sarama.ParseKafkaVersion(gc.Version)
		if err != nil {
			return nil, fmt.Errorf("kafka version %q: %w", gc.Version, err)
		}
		cfg.Version = v
	}

	switch gc.Offset {
	case "", "newest":
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	case "oldest":
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		return nil, fmt.Errorf("kafka initial offset must be newest or oldest, got %q", gc.Offset)
	}

	cfg.ClientID = "farmacia-api"
	if gc.ClientID != "" {
		cfg.ClientID = gc.ClientID
	}
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}
	// commits only what cgHandler marked
	cfg.Consumer.Offsets.AutoCommit.Enable = true
	cfg.Net.DialTimeout = 5 * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka config: %w", err)
	}
	return cfg, nil
}
