package entity

import "time"

// Message is a chat record as returned by the chat store.
type Message struct {
	ID        string    `json:"id"`
	GameID    string    `json:"gameId"`
	Sender    User      `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
