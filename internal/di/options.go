package di

// Region is the AWS region the container's clients operate in. Empty falls
// back to the SDK's default resolution chain.
type Region string

// DisableHistory turns off the DynamoDB release history.
type DisableHistory bool

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithRegion pins the AWS region for all provided clients.
func WithRegion(region string) Option {
	return func(opts *options) {
		opts.region = Region(region)
	}
}

// WithDisableHistory disables release history recording.
func WithDisableHistory(disable bool) Option {
	return func(opts *options) {
		opts.disableHistory = disable
	}
}

// WithProviders adds constructor functions to the dependency injection
// container. Providers can declare dependencies as function parameters,
// which are resolved by the container.
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	region         Region
	providers      []any
	disableHistory bool
}
