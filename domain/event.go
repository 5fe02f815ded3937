package domain

import "time"

// Event is a public happening users can sign up for. Title is unique.
type Event struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Title         string    `bson:"title" json:"title"`
	ThumbnailText string    `bson:"thumbnail_text,omitempty" json:"thumbnail_text,omitempty"`
	MainText      string    `bson:"main_text,omitempty" json:"main_text,omitempty"`
	Date          time.Time `bson:"date,omitempty" json:"date,omitempty"`
	Online        bool      `bson:"online" json:"online"`
	ZoomLink      string    `bson:"zoom_link,omitempty" json:"zoom_link,omitempty"`
	Address       string    `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// Participation joins a user to an event. One row per (event, user).
type Participation struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	EventID   string    `bson:"event_id" json:"event_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
