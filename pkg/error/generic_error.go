package error

// GenericError is implemented by every typed error in this package so
// the recovery middleware and handlers can map them to a response code.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
