package di

// ConfigPath is the optional topology config file location. Empty means
// environment-only configuration.
type ConfigPath string

// CatalogURL is the portal catalog API base URL
type CatalogURL string

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithConfigPath sets the topology config file to load
func WithConfigPath(path string) Option {
	return func(opts *options) {
		opts.configPath = ConfigPath(path)
	}
}

// WithCatalogURL sets the portal catalog API base URL
func WithCatalogURL(url string) Option {
	return func(opts *options) {
		opts.catalogURL = CatalogURL(url)
	}
}

// WithProviders adds constructor functions to the dependency injection container.
// Each provider should be a constructor function that returns one or more values.
// Providers can declare dependencies as function parameters, which will be
// automatically resolved by the container.
//
// Example:
//
//	WithProviders(
//	    func() *configstore.Store { return store },
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	configPath ConfigPath
	catalogURL CatalogURL
	providers  []any
}
