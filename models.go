package main

import "time"

// Grade is the three-level severity the analysis service assigns to each
// statistic.
type Grade string

const (
	GradeBad  Grade = "bad"
	GradeOK   Grade = "ok"
	GradeGood Grade = "good"
)

func (g Grade) valid() bool {
	return g == GradeBad || g == GradeOK || g == GradeGood
}

// CredentialBundle is the Looker API credential set submitted by the user.
// It lives in the vault under a locator derived from BaseURL and is never
// held in server memory beyond a single store or read.
type CredentialBundle struct {
	BaseURL      string `json:"base_url" validate:"required,url"`
	ClientID     string `json:"client_id" validate:"required,len=20"`
	ClientSecret string `json:"client_secret" validate:"required,len=24"`
}

// VaultEntry is a stored credential bundle together with its expiry.
type VaultEntry struct {
	Locator   string           `json:"locator"`
	Bundle    CredentialBundle `json:"bundle"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Stat routes exposed by the analysis service.
const (
	StatInactiveUsers       = "inactive_users"
	StatSlowExplores        = "slow_explores"
	StatAbandonedDashboards = "abandoned_dashboards"
)

func statRoutes() []string {
	return []string{StatInactiveUsers, StatSlowExplores, StatAbandonedDashboards}
}

// statsRequest is the JSON body every stat route expects.
type statsRequest struct {
	HostURL      string `json:"host_url"`
	Port         int    `json:"port"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// InactiveUserResult mirrors the /stats/inactive_users response.
type InactiveUserResult struct {
	Grade           Grade    `json:"grade"`
	PctInactive     float64  `json:"pct_inactive"`
	SampleUserNames []string `json:"sample_user_names"`
}

// ExplorePerformance carries the Looker system activity fields for one
// explore. The JSON keys are the raw Looker field names.
type ExplorePerformance struct {
	Model      string  `json:"query.model"`
	Explore    string  `json:"query.view"`
	AvgRuntime float64 `json:"history.average_runtime"`
	MaxRuntime float64 `json:"history.max_runtime"`
}

// SlowExploresResult mirrors the /stats/slow_explores response. The explores
// arrive sorted by average runtime, slowest first, with at least two entries.
type SlowExploresResult struct {
	Grade        Grade                `json:"grade"`
	SlowExplores []ExplorePerformance `json:"slow_explores"`
}

// AbandonedDashboardResult mirrors the /stats/abandoned_dashboards response.
type AbandonedDashboardResult struct {
	Grade          Grade   `json:"grade"`
	CountAbandoned int     `json:"count_abandoned"`
	PctAbandoned   float64 `json:"pct_abandoned"`
}

// Message is one chat bubble in the roast transcript. PauseMs adds to the
// computed typing delay before the message is revealed.
type Message struct {
	Text    string `json:"text"`
	PauseMs int    `json:"pause_ms,omitempty"`
}
