package slack

import (
	"context"
	"sync"

	"github.com/slack-go/slack"

	"github.com/slacktail/slacktail/internal/team"
)

// Directory resolves channel and user metadata through the Web API.
// User lookups are cached for the life of the directory; profiles change
// rarely and every message would otherwise cost an API call.
type Directory struct {
	api *slack.Client

	mu    sync.RWMutex
	users map[string]team.UserInfo
}

// NewDirectory creates a directory on top of an authenticated API client.
func NewDirectory(api *slack.Client) *Directory {
	return &Directory{
		api:   api,
		users: make(map[string]team.UserInfo),
	}
}

// ChannelInfo fetches one channel's metadata.
func (d *Directory) ChannelInfo(ctx context.Context, channelID string) (team.ChannelInfo, error) {
	channel, err := d.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		return team.ChannelInfo{}, categorizeError(err, "getting conversation info")
	}

	return team.ChannelInfo{
		ID:       channel.ID,
		Name:     channel.Name,
		IsMember: channel.IsMember,
	}, nil
}

// UserInfo fetches one user's profile, serving repeats from the cache.
func (d *Directory) UserInfo(ctx context.Context, userID string) (team.UserInfo, error) {
	d.mu.RLock()
	cached, ok := d.users[userID]
	d.mu.RUnlock()
	if ok {
		return cached, nil
	}

	user, err := d.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return team.UserInfo{}, categorizeError(err, "getting user info")
	}

	info := team.UserInfo{
		ID:          user.ID,
		DisplayName: user.Profile.DisplayName,
		RealName:    user.RealName,
		Login:       user.Name,
	}

	d.mu.Lock()
	d.users[userID] = info
	d.mu.Unlock()

	return info, nil
}

// CachedUsers returns how many profiles the cache holds.
func (d *Directory) CachedUsers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}
