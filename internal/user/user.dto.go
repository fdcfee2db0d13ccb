package user

type CreateUserRequest struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

type UpdateProfileRequest struct {
	Username       string `json:"username,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	IsPublic       *bool  `json:"is_public,omitempty"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type DeviceToken struct {
	UserID   string `json:"user_id"`
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// StreakState is returned by the streak refresh endpoint.
type StreakState struct {
	Streak            int    `json:"streak"`
	StreakLastUpdated string `json:"streak_last_updated,omitempty"`
	Decision          string `json:"decision"`
	DaysDiff          int    `json:"days_diff"`
}
