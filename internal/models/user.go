package models

import (
	"time"
)

type User struct {
	Email          string    `json:"email" dynamodbav:"email"`
	PasswordHash   string    `json:"-" dynamodbav:"password_hash"`
	FullName       string    `json:"full_name,omitempty" dynamodbav:"full_name,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty" dynamodbav:"avatar_url,omitempty"`
	LoggedIn       bool      `json:"-" dynamodbav:"logged_in"`
	EmailConfirmed bool      `json:"email_confirmed" dynamodbav:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func (u *User) GetPK() string {
	return "USER#" + u.Email
}

func (u *User) GetSK() string {
	return "METADATA"
}
