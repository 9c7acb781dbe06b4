package error

import "net/http"

// PersistenceError covers failed load/store of the permission record.
// These must surface to the operator channel, never be swallowed.
type PersistenceError string

func (err PersistenceError) Error() string {
	return string(err)
}

func (err PersistenceError) ErrCode() string {
	return "PERSISTENCE_ERROR"
}

func (err PersistenceError) StatusCode() int {
	return http.StatusInternalServerError
}
