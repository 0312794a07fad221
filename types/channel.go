package types

// ChannelProfile is the read model for a user's public channel page,
// combining the user record with derived subscription counts.
type ChannelProfile struct {
	ID                        int    `json:"id"`
	FullName                  string `json:"full_name"`
	Username                  string `json:"username"`
	Email                     string `json:"email"`
	AvatarURL                 string `json:"avatar_url"`
	CoverImageURL             string `json:"cover_image_url"`
	SubscribersCount          int    `json:"subscribers_count"`
	ChannelsSubscribedToCount int    `json:"channels_subscribed_to_count"`

	// IsSubscribed reports whether the viewing user has a subscription
	// edge to this channel. Always false for anonymous viewers.
	IsSubscribed bool `json:"is_subscribed"`
}

// VideoOwner is the reduced owner projection embedded in watch history
// entries.
type VideoOwner struct {
	ID        int    `json:"id"`
	FullName  string `json:"full_name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// WatchHistoryEntry is a watched video joined with its owner.
type WatchHistoryEntry struct {
	Video
	Owner VideoOwner `json:"owner"`
}
