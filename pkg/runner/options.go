package runner

import "log/slog"

// Option configures a Runner.
type Option func(*Runner)

// WithHandler sets the IO strategy. Defaults to a TextHandler on
// stdin and stdout.
func WithHandler(h IOHandler) Option {
	return func(r *Runner) { r.handler = h }
}

// WithInterceptor overrides the launch policy the mode would pick.
// Use MultiInterceptor to combine several.
func WithInterceptor(i LaunchInterceptor) Option {
	return func(r *Runner) { r.interceptor = i }
}

// WithLogger sets the structured logger for host events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithHeadless switches off interactive confirmation. Launches are
// auto-approved, so only use it with a trusted flow library.
func WithHeadless(headless bool) Option {
	return func(r *Runner) { r.headless = headless }
}
