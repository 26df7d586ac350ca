package model

import "time"

// NotificationMessage is the structured payload sent to the primary channel.
// It is built once by the composer and not modified afterwards.
type NotificationMessage struct {
	Title       string
	Color       int
	URL         string
	Author      Author
	Description string
	Fields      []Field
	Footer      Footer
	Timestamp   time.Time
}

// Author is the message author block.
type Author struct {
	Name    string
	IconURL string
	URL     string
}

// Field is one named message field.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Footer is the message footer.
type Footer struct {
	Text    string
	IconURL string
}
