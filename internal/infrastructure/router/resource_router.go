package router

import (
	"fmt"
	"sync"

	"movement-hold-service/internal/usecase"
	"movement-hold-service/pkg/logger"
)

// ResourceRouter routes messages to handlers based on their resource type
type ResourceRouter struct {
	mu       sync.RWMutex
	handlers []usecase.ResourceHandler
	logger   logger.Logger
}

// NewResourceRouter creates a new resource router
func NewResourceRouter(logger logger.Logger) *ResourceRouter {
	return &ResourceRouter{
		handlers: make([]usecase.ResourceHandler, 0),
		logger:   logger,
	}
}

var _ usecase.ResourceRouter = (*ResourceRouter)(nil)

// Register registers a handler
func (r *ResourceRouter) Register(handler usecase.ResourceHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers = append(r.handlers, handler)
	r.logger.Info("Registered handler", "handler", fmt.Sprintf("%T", handler))
}

// GetHandler returns the first handler that accepts the resource type, or nil
func (r *ResourceRouter) GetHandler(resourceType string) usecase.ResourceHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, handler := range r.handlers {
		if handler.CanHandle(resourceType) {
			return handler
		}
	}
	return nil
}
