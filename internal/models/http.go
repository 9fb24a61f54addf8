// Package models defines the request and response bodies of the HTTP API.
package models

import "time"

// CreateRequest is the body of POST /url/createUrl.
type CreateRequest struct {
	// LongURL is the absolute URL to shorten.
	LongURL string `json:"longUrl"`

	// Title is an optional display label.
	Title string `json:"title,omitempty"`
}

// CreateResponse carries the public short URL.
type CreateResponse struct {
	ShortURL string `json:"shortUrl"`
}

// Link is one entry of GET /url/listUrls.
type Link struct {
	ID        string    `json:"id"`
	ShortID   string    `json:"shortId"`
	ShortURL  string    `json:"shortUrl"`
	LongURL   string    `json:"longUrl"`
	Title     string    `json:"title,omitempty"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Error string `json:"error"`
}
