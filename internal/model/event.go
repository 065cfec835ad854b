package model

import "time"

type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	AllDay      bool        `json:"allDay"`
	UserID      string      `json:"userId"`
	User        *PublicUser `json:"user,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type EventListData struct {
	Items []Event `json:"items"`
}
