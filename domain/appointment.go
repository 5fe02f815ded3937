package domain

import "time"

// Appointment is a one-to-one booking made by a user.
type Appointment struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Date      time.Time `bson:"date" json:"date"`
	Online    bool      `bson:"online" json:"online"`
	Address   string    `bson:"address,omitempty" json:"address,omitempty"`
	ZoomLink  string    `bson:"zoom_link,omitempty" json:"zoom_link,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
