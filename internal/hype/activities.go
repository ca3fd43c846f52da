package hype

import (
	"fmt"
	"sort"
)

// activityPoints is the single schedule of base HYPE per activity.
var activityPoints = map[string]int64{
	"daily_login":        10,
	"profile_completed":  100,
	"stadium_created":    100,
	"herocard_created":   100,
	"poster_created":     75,
	"highlight_uploaded": 50,
	"stats_updated":      15,
	"profile_shared":     25,
	"stadium_visit":      1,
	"post_created":       20,
	"comment_posted":     10,
	"post_liked":         5,
	"follower_gained":    20,
	"referral_signup":    250,
}

// ActivityPoints resolves an activity key to its base amount.
func ActivityPoints(key string) (int64, error) {
	pts, ok := activityPoints[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownActivity, key)
	}
	return pts, nil
}

// Activities lists the schedule sorted by key.
func Activities() []Activity {
	out := make([]Activity, 0, len(activityPoints))
	for k, v := range activityPoints {
		out = append(out, Activity{Key: k, Points: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

type Activity struct {
	Key    string `json:"key"`
	Points int64  `json:"points"`
}
