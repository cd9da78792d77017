// Package loader registers and loads the HTTP features of the service.
//
// Each feature implements Feature:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// Manager keeps features in registration order; LoadAll mounts the enabled
// ones and stops at the first failure.
package loader
