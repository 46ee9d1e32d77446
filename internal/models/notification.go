package models

import "time"

// NotificationLargeExpense is sent to members of a large expense.
const NotificationLargeExpense = "large_expense"

// Notification is a persisted message under users/{userId}/notifications.
type Notification struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}
