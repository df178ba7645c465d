package profile

import "time"

// Tier names must match keys of the configured quota tier table.
const (
	TierDefault   = "default_list"
	TierX5        = "x5"
	TierX10       = "x10"
	TierX100      = "x100"
	TierWhitelist = "white_list"
)

// Profile is one user's persistent record. It is created on first
// contact and mutated by every interaction, never deleted.
type Profile struct {
	UserID         int64
	Username       string
	FirstName      string
	LastName       string
	Language       string
	ContextEnabled bool
	WebEnabled     bool
	Temperature    float64
	TopP           float64
	Model          string
	Tokens         int64
	Requests       int64
	DateRequests   time.Time
	Role           string
	Tier           string
	Resolution     string
	Quality        string
	// LastPromptMessageID is the transport id of the last interactive
	// prompt sent to the user, kept so it can be deleted on the next turn.
	LastPromptMessageID int64
}

// Defaults returns a fresh profile for a first-contact user.
func Defaults(userID int64, username, firstName, lastName, locale, model string) Profile {
	return Profile{
		UserID:       userID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		Language:     locale,
		Temperature:  0.7,
		TopP:         1.0,
		Model:        model,
		DateRequests: time.Now().UTC(),
		Role:         "You are a helpful assistant.",
		Tier:         TierDefault,
		Resolution:   "1024x1024",
		Quality:      "standard",
	}
}
