package core

// Logger is any leveled logger.
// args may hold errors, map[string]interface{} extras and at most one Person (the request's applicant).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the applicant or admin a log entry is about.
type Person struct {
	ID    string
	Name  string
	Email string
}
