package users

import "time"

// User is the identity-service projection this service reads. Password
// material never reaches this process; the auth proxy owns it.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is the public view of a user.
type Profile struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	CreatedAt        time.Time `json:"createdAt"`
	PublicNotesCount int       `json:"publicNotesCount"`
}
