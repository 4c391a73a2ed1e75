package domain

import "context"

type Message struct {
	Key   []byte
	Value []byte
}

// SubscriberPort delivers messages until ctx is cancelled, then closes
// the channel.
type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error)
}
