package ports

// Logger defines the interface for logging.
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(err error)
}
