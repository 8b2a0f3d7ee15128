package software

// RasterizerOption is a functional option for configuring a Rasterizer via NewRasterizer.
type RasterizerOption func(*rasterizer)

// WithWorkers is an option builder that sets the number of fragment workers.
// A value of 1 or less disables the worker pool and rasterizes on the calling
// goroutine.
//
// Parameters:
//   - workers: the number of workers to use for fragment bands
//
// Returns:
//   - RasterizerOption: a function that applies the worker count to a rasterizer
func WithWorkers(workers int) RasterizerOption {
	return func(r *rasterizer) {
		r.workers = workers
	}
}
