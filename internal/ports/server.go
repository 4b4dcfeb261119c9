package ports

// Server defines the interface for the application's front-end
type Server interface {
	// Start starts serving requests
	Start() error

	// Stop stops the server
	Stop() error
}
