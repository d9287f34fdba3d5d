package slack

import "time"

// LinkedUser ties one app account to one Slack identity. The row is keyed
// by slack_user_id, so re-linking from a different app account overwrites
// the previous mapping: last link wins.
type LinkedUser struct {
	UserID           string
	SlackUserID      string
	SlackTeamID      string
	SlackAccessToken string
	LinkedAt         time.Time
}
