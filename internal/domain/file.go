package domain

import (
	"errors"
	"time"
)

var ErrFileNotFound = errors.New("file not found")

// File is an upload held by the dev API.
type File struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Data        []byte    `json:"data"`
	CreatedAt   time.Time `json:"createdAt"`
}
