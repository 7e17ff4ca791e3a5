package models

import (
	"time"

	"github.com/google/uuid"
)

// Gauge is a sampled counter value.
type Gauge struct {
	Current int `json:"current"`
}

// TopChannel is a channel ranked by message count at sample time.
type TopChannel struct {
	ChannelID string `json:"channelId"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
}

// TopMember is a member ranked by activity score at sample time.
type TopMember struct {
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	ActivityScore int    `json:"activityScore"`
}

// Snapshot is a point-in-time analytics sample for a Discord server,
// ingested by the stats bot and aggregated on read.
type Snapshot struct {
	ID              uuid.UUID `json:"id"`
	DiscordServerID string    `json:"serverId"`
	ServerName      string    `json:"serverName,omitempty"`

	Members  Gauge `json:"members"`
	Messages Gauge `json:"messages"`
	Voice    Gauge `json:"voice"`
	Joins    Gauge `json:"joins"`

	TextChannelsCount  int `json:"textChannelsCount"`
	VoiceChannelsCount int `json:"voiceChannelsCount"`
	RolesCount         int `json:"rolesCount"`
	EmojisCount        int `json:"emojisCount"`
	Boosts             int `json:"boosts"`
	AFKMembers         int `json:"afkMembers"`

	TopChannels []TopChannel `json:"topChannels,omitempty"`
	TopMembers  []TopMember  `json:"topMembers,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
