package handlers

import "github.com/zfogg/sidechain/backend/internal/kernel"

// Handlers contains all HTTP handlers for the API.
// Uses dependency injection via the kernel for all service dependencies.
type Handlers struct {
	kernel *kernel.Kernel
}

// NewHandlers creates a new handlers instance with dependency injection.
// All service dependencies are accessed through the kernel.
func NewHandlers(k *kernel.Kernel) *Handlers {
	return &Handlers{
		kernel: k,
	}
}

// Kernel returns the underlying dependency injection container.
// Used for testing and access to all services.
func (h *Handlers) Kernel() *kernel.Kernel {
	return h.kernel
}
