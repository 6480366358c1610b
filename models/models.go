package models

import (
	"encoding/json"
	"time"
)

type User struct {
	ID                    int         `json:"id"`
	Username              string      `json:"username"`
	Name                  string      `json:"name"`
	Email                 string      `json:"email"`
	PasswordHash          string      `json:"-"`
	AccountType           AccountType `json:"account_type"`
	CreatedAt             time.Time   `json:"created_at"`
	RequirePasswordChange bool        `json:"require_password_change"`
}

type Session struct {
	ID            int       `json:"id"`
	UserID        int       `json:"-"`
	LastSeen      time.Time `json:"last_seen"`
	LastIP        *string   `json:"ip"`
	LastUserAgent *string   `json:"user_agent"`
	CreatedAt     time.Time `json:"created_at"`
}

type Document struct {
	ID           int             `json:"id"`
	Owner        int             `json:"-"`
	Title        string          `json:"title"`
	Content      json.RawMessage `json:"content"`
	CreatedAt    time.Time       `json:"created_at"`
	LastModified time.Time       `json:"last_modified"`
}

type Note struct {
	ID        int       `json:"id"`
	Owner     int       `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Subject struct {
	ID                int     `json:"id"`
	Owner             int     `json:"-"`
	Name              string  `json:"name"`
	Class             string  `json:"class"`
	Active            bool    `json:"active"`
	GoogleClassroomID *string `json:"google_classroom_id"`
}

type Todo struct {
	ID        int        `json:"id"`
	Owner     int        `json:"-"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	Due       *time.Time `json:"due"`
	Archived  bool       `json:"archived"`
	Subject   *int       `json:"subject"`
	Parent    *int       `json:"parent"`
}

type Assessment struct {
	ID      int              `json:"id"`
	Owner   int              `json:"-"`
	Subject *int             `json:"subject"`
	Title   string           `json:"title"`
	Status  AssessmentStatus `json:"status"`
	Due     *time.Time       `json:"due"`
	// DuePeriod is null for assessments without a set period.
	DuePeriod *DuePeriod `json:"due_period"`
}
