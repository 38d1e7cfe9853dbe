package middleware

import "github.com/aretw0/pvm/pkg/ports"

// Middleware allows wrapping an InstanceStore to add behavior.
type Middleware func(ports.InstanceStore) ports.InstanceStore

// Chain applies mws to store; the first middleware is the outermost.
func Chain(store ports.InstanceStore, mws ...Middleware) ports.InstanceStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
