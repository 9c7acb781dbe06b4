package error

import "net/http"

// TransportError covers failed sends and profile lookups against the
// chat transport. It never aborts the process, only the current handler.
type TransportError string

func (err TransportError) Error() string {
	return string(err)
}

func (err TransportError) ErrCode() string {
	return "TRANSPORT_ERROR"
}

func (err TransportError) StatusCode() int {
	return http.StatusBadGateway
}
