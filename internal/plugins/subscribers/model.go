// Package subscribers manages newsletter subscribers: the second CRUD
// resource, built from the same pipeline steps as users.
package subscribers

import "time"

// Subscriber is one newsletter signup.
type Subscriber struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ZipCode   string    `json:"zip_code"`
	CreatedAt time.Time `json:"created_at"`
}

// Input is the validated form data for creating or editing a subscriber.
type Input struct {
	Name    string
	Email   string
	ZipCode string
}
