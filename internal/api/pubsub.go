package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/victornm/etrivia/internal/domain"
)

type Notification struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type LeaderboardNotification struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}

// PublishLeaderboardUpdated notifies other processes that the leaderboard changed.
func (a *API) PublishLeaderboardUpdated(ctx context.Context, e domain.EventLeaderboardUpdated) error {
	return a.publishNotification(ctx, a.leaderboardChannel(), e.Name(), LeaderboardNotification{
		Entries: e.Entries,
	})
}

func (a *API) publishNotification(ctx context.Context, channel, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, channel, b).Err()
}

func (a *API) leaderboardChannel() string {
	return fmt.Sprintf("%s:leaderboard", a.prefix)
}
