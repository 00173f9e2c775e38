package usecase

import "context"

// ResourceHandler processes the decoded JSON body of one resource type
type ResourceHandler interface {
	// CanHandle determines if this handler processes the given resource type
	CanHandle(resourceType string) bool

	// Handle processes the plain JSON body
	Handle(ctx context.Context, body []byte) error
}

// ResourceRouter routes messages to the handler for their resource type
type ResourceRouter interface {
	// Register registers a handler
	Register(handler ResourceHandler)

	// GetHandler returns the handler for a resource type, or nil
	GetHandler(resourceType string) ResourceHandler
}
