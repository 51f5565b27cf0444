// Package models holds the data types shared by the registry and the HTTP layer.
package models

// UserID is the server-assigned identifier of a stored user.
type UserID uint32

// User is the record kept by the registry.
type User struct {
	Name string
}

// CreateUserRequest is the body of POST /users.
// Name is a pointer so that a payload without the "name" key can be told apart
// from an empty name, which is accepted as is.
type CreateUserRequest struct {
	Name *string `json:"name"`
}

// CreateUserResponse is the body returned by POST /users.
type CreateUserResponse struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}
