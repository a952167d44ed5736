package schema

// User is the signed-in session record. It is a placeholder identity and
// carries no credentials.
type User struct {
	ID              string   `json:"id"`
	Email           string   `json:"email"`
	Username        string   `json:"username"`
	Avatar          string   `json:"avatar,omitempty"`
	FavoriteRecipes []string `json:"favoriteRecipes"`
}

// ProfileUpdate holds the optional fields a profile update may change.
type ProfileUpdate struct {
	Email    *string
	Username *string
	Avatar   *string
}

// Preferences holds per-device user preferences.
type Preferences struct {
	Theme         Theme `json:"theme"`
	Notifications bool  `json:"notifications"`
	Units         Units `json:"units"`
}

// DefaultPreferences returns the preferences used when none are stored.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         LightTheme,
		Notifications: true,
		Units:         MetricUnits,
	}
}
