package scene

import (
	"github.com/What42Pizza/WGPU-Template/engine/game_object"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithObjects registers initial objects in the scene's registry. Objects without
// IDs will be assigned new IDs. Note that objects added this way are not bound to
// an instance group until Add is called with their shaders, so they will not be
// rendered until then.
//
// Parameters:
//   - objects: the objects to register
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			if obj.ID() == 0 {
				obj.SetID(s.nextID)
				s.nextID++
			}
			if !obj.Ephemeral() {
				s.registry[obj.ID()] = obj
			}
		}
	}
}

// WithPrepWorkers sets the number of worker goroutines used during the parallel
// instance packing phase of PrepareFrame. Defaults to runtime.NumCPU()-1.
// Higher values may improve throughput with many model groups; lower values
// reduce scheduling overhead for simple scenes.
//
// Parameters:
//   - n: the number of prep workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPrepWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.prepWorkers = n
	}
}
