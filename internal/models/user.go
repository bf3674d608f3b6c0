package models

import "time"

// User holds the profile and presence fields owned by this service. Account
// creation and verification happen at the auth boundary; the core reads
// profiles and mutates presence and device state only.
type User struct {
	ID           string     `db:"id" json:"userId"`
	Name         string     `db:"name" json:"name"`
	PhoneNumber  string     `db:"phone_number" json:"phoneNumber"`
	CountryCode  string     `db:"country_code" json:"countryCode"`
	About        string     `db:"about" json:"about"`
	ProfileImage string     `db:"profile_image" json:"profileImage"`
	UserStatus   string     `db:"user_status" json:"userStatus"`
	IsOnline     bool       `db:"is_online" json:"isOnline"`
	LastSeenAt   *time.Time `db:"last_seen_at" json:"lastSeenAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Device is one registered device of a user. A user keeps at most the two
// most recently seen devices, deduplicated by device id.
type Device struct {
	UserID      string    `db:"user_id" json:"-"`
	DeviceID    string    `db:"device_id" json:"deviceId"`
	DeviceName  string    `db:"device_name" json:"deviceName"`
	DeviceType  string    `db:"device_type" json:"deviceType"`
	PushToken   string    `db:"push_token" json:"pushToken"`
	LastLoginAt time.Time `db:"last_login_at" json:"lastLoginAt"`
}

// UserProfile is the public subset embedded in call relays and chat-list
// projections.
type UserProfile struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	CountryCode  string `json:"countryCode"`
	PhoneNumber  string `json:"phoneNumber"`
	About        string `json:"about"`
	UserStatus   string `json:"userStatus"`
	ProfileImage string `json:"profileImage"`
}

// Profile extracts the public view of a user.
func (u User) Profile() UserProfile {
	return UserProfile{
		UserID:       u.ID,
		Name:         u.Name,
		CountryCode:  u.CountryCode,
		PhoneNumber:  u.PhoneNumber,
		About:        u.About,
		UserStatus:   u.UserStatus,
		ProfileImage: u.ProfileImage,
	}
}
