package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"opslink/internal/models"
	"opslink/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Analytics ranges, expressed as lookback windows. "all" is an
// arbitrary large window rather than a real unbounded scan.
var analyticsRanges = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
	"all": 1000 * 24 * time.Hour,
}

const defaultTopN = 5

// TrendGauge is a current value with its delta over the range.
type TrendGauge struct {
	Current int `json:"current"`
	Delta   int `json:"delta"`
}

// ChartSeries holds the per-snapshot series the frontend charts.
type ChartSeries struct {
	Labels   []string `json:"labels"`
	Members  []int    `json:"members"`
	Messages []int    `json:"messages"`
	Voice    []int    `json:"voice"`
	Joins    []int    `json:"joins"`
}

// AnalyticsResponse is the aggregated view over a snapshot range.
type AnalyticsResponse struct {
	ServerName string     `json:"serverName"`
	Members    TrendGauge `json:"members"`
	Messages   TrendGauge `json:"messages"`
	Voice      TrendGauge `json:"voice"`
	Joins      TrendGauge `json:"joins"`

	TextChannelsCount  int `json:"textChannelsCount"`
	VoiceChannelsCount int `json:"voiceChannelsCount"`
	RolesCount         int `json:"rolesCount"`
	EmojisCount        int `json:"emojisCount"`
	Boosts             int `json:"boosts"`
	AFKMembers         int `json:"afkMembers"`

	TopChannels []models.TopChannel `json:"topChannels"`
	TopMembers  []models.TopMember  `json:"topMembers"`
	Chart       ChartSeries         `json:"chart"`
}

// HandleGetAnalytics aggregates the snapshots of a Discord server over
// the requested range: deltas against the previous snapshot, chart
// series and the top-N channels/members from the latest sample.
func (s *Server) HandleGetAnalytics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		discordServerID := chi.URLParam(r, "discordServerId")
		if discordServerID == "" {
			s.respondError(w, utils.NewValidationError("invalid Discord server ID"))
			return
		}

		since := time.Now().Add(-parseRange(r.URL.Query().Get("range")))
		topN := defaultTopN
		if n, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && n > 0 {
			topN = n
		}

		snapshots, err := s.DB.GetSnapshotsSince(r.Context(), discordServerID, since)
		if err != nil {
			s.respondError(w, err)
			return
		}

		// A server with no samples yet still renders an empty dashboard.
		if len(snapshots) == 0 {
			s.respondJSON(w, http.StatusOK, emptyAnalytics())
			return
		}

		latest := snapshots[len(snapshots)-1]

		// Deltas compare against the snapshot preceding the latest one,
		// falling back to the last sample before the range so a window
		// with a single snapshot still shows movement.
		prev := latest
		if len(snapshots) > 1 {
			prev = snapshots[len(snapshots)-2]
		} else if before, err := s.DB.GetLatestSnapshotBefore(r.Context(), discordServerID, since); err == nil && before != nil {
			prev = before
		}

		chart := ChartSeries{
			Labels:   make([]string, 0, len(snapshots)),
			Members:  make([]int, 0, len(snapshots)),
			Messages: make([]int, 0, len(snapshots)),
			Voice:    make([]int, 0, len(snapshots)),
			Joins:    make([]int, 0, len(snapshots)),
		}
		for _, snap := range snapshots {
			chart.Labels = append(chart.Labels, chartLabel(snap.CreatedAt))
			chart.Members = append(chart.Members, snap.Members.Current)
			chart.Messages = append(chart.Messages, snap.Messages.Current)
			chart.Voice = append(chart.Voice, snap.Voice.Current)
			chart.Joins = append(chart.Joins, snap.Joins.Current)
		}

		serverName := latest.ServerName
		if serverName == "" {
			serverName = "Unknown"
		}

		s.respondJSON(w, http.StatusOK, AnalyticsResponse{
			ServerName: serverName,
			Members:    TrendGauge{Current: latest.Members.Current, Delta: latest.Members.Current - prev.Members.Current},
			Messages:   TrendGauge{Current: latest.Messages.Current, Delta: latest.Messages.Current - prev.Messages.Current},
			Voice:      TrendGauge{Current: latest.Voice.Current, Delta: latest.Voice.Current - prev.Voice.Current},
			Joins:      TrendGauge{Current: latest.Joins.Current, Delta: latest.Joins.Current - prev.Joins.Current},

			TextChannelsCount:  latest.TextChannelsCount,
			VoiceChannelsCount: latest.VoiceChannelsCount,
			RolesCount:         latest.RolesCount,
			EmojisCount:        latest.EmojisCount,
			Boosts:             latest.Boosts,
			AFKMembers:         latest.AFKMembers,

			TopChannels: topChannels(latest.TopChannels, topN),
			TopMembers:  topMembers(latest.TopMembers, topN),
			Chart:       chart,
		})
	}
}

// HandleIngestSnapshot stores a sample pushed by the stats bot.
func (s *Server) HandleIngestSnapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var snap models.Snapshot
		if appErr := decodeBody(r, &snap); appErr != nil {
			s.respondError(w, appErr)
			return
		}
		if snap.DiscordServerID == "" {
			s.respondError(w, utils.NewValidationError("serverId is required"))
			return
		}

		snap.ID = uuid.New()
		if snap.CreatedAt.IsZero() {
			snap.CreatedAt = time.Now()
		}

		if err := s.DB.InsertSnapshot(r.Context(), &snap); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, MessageResponse{Message: "Snapshot recorded"})
	}
}

func parseRange(rangeName string) time.Duration {
	if d, ok := analyticsRanges[rangeName]; ok {
		return d
	}
	return analyticsRanges["7d"]
}

func chartLabel(t time.Time) string {
	return fmt.Sprintf("%d/%d %d:00", int(t.Month()), t.Day(), t.Hour())
}

func topChannels(channels []models.TopChannel, n int) []models.TopChannel {
	out := make([]models.TopChannel, len(channels))
	copy(out, channels)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func topMembers(members []models.TopMember, n int) []models.TopMember {
	out := make([]models.TopMember, len(members))
	copy(out, members)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ActivityScore > out[j].ActivityScore })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func emptyAnalytics() AnalyticsResponse {
	return AnalyticsResponse{
		ServerName:  "Unknown",
		TopChannels: []models.TopChannel{},
		TopMembers:  []models.TopMember{},
		Chart: ChartSeries{
			Labels:   []string{},
			Members:  []int{},
			Messages: []int{},
			Voice:    []int{},
			Joins:    []int{},
		},
	}
}
