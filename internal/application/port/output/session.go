package output

// SessionPort owns the live browser for one trajectory.
type SessionPort interface {
	Browser() BrowserPort
	Closed() bool
	Close() error
}
