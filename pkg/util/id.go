// Package util contains any functions used across the application that don't match
// any other package
package util

import gonanoid "github.com/matoous/go-nanoid/v2"

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// IDLength is the length of user and file IDs
const IDLength = 16

// NewID returns a random URL safe ID of IDLength characters
func NewID() (string, error) {
	return gonanoid.Generate(charset, IDLength)
}
