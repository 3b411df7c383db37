package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	storePath string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStorePath overrides the configured store location, typically from the
// command line.
func WithStorePath(path string) Option {
	return func(a *application) {
		a.storePath = path
	}
}
