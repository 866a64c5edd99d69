package models

import "time"

type Contact struct {
	ID         string     `json:"id" dynamodbav:"id"`
	OwnerEmail string     `json:"-" dynamodbav:"owner_email"`
	FirstName  string     `json:"first_name" dynamodbav:"first_name"`
	LastName   string     `json:"last_name,omitempty" dynamodbav:"last_name,omitempty"`
	Email      string     `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Phone      string     `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Birthday   *time.Time `json:"birthday,omitempty" dynamodbav:"birthday,omitempty"`
	Extra      string     `json:"extra,omitempty" dynamodbav:"extra,omitempty"`
	CreatedAt  time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

// FullName is "First" or "First Last" depending on whether a last name is set.
func (c *Contact) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

func (c *Contact) GetPK() string {
	return "USER#" + c.OwnerEmail
}

func (c *Contact) GetSK() string {
	return "CONTACT#" + c.ID
}
