package models

// Delivery is the result of a completed exchange with a webhook destination.
type Delivery struct {
	StatusCode  int
	Body        string
	ContentType string
}
