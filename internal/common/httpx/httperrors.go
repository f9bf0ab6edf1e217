package httpx

import (
	"net/http"

	json "github.com/json-iterator/go"
	"github.com/veristream/veristream-internal/internal/common/apperrors"
)

type Error struct {
	Description string `json:"description"`
	StatusCode  int    `json:"http_status_code"`
}

type errorRsp struct {
	Result int    `json:"result"`
	Error  string `json:"error"`
}

const Failure int = 0

func (e *Error) Send(w http.ResponseWriter) {
	if w == nil {
		return
	}
	rsp := &errorRsp{
		Result: Failure,
		Error:  e.Description,
	}
	rspJson, err := json.Marshal(rsp)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Unable to parse error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	w.Write(rspJson)
}

func (e *Error) Error() string {
	return e.Description
}

func (current Error) Is(other error) bool {
	return current.Error() == other.Error()
}

func SendError(w http.ResponseWriter, err apperrors.Error) {
	if err == nil {
		return
	}
	statusCode := err.StatusCode()
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	httperror := &Error{
		StatusCode:  statusCode,
		Description: err.ErrorAll(),
	}
	httperror.Send(w)
}

// Common Errors

func ErrReqMethodNotSupported() *Error {
	return &Error{
		Description: "Request Method Not Supported",
		StatusCode:  http.StatusMethodNotAllowed,
	}
}

func ErrUnableToParseReqData() *Error {
	return &Error{
		Description: "Unable to parse request data",
		StatusCode:  http.StatusBadRequest,
	}
}

func ErrUnableToReadRequest() *Error {
	return &Error{
		Description: "Unable to read request",
		StatusCode:  http.StatusBadRequest,
	}
}

func ErrInvalidRequest(msg ...string) *Error {
	description := "Invalid request"
	if len(msg) > 0 {
		description = description + ": " + msg[0]
	}
	return &Error{
		Description: description,
		StatusCode:  http.StatusBadRequest,
	}
}

func ErrNotFound(msg ...string) *Error {
	description := "Not found"
	if len(msg) > 0 {
		description = msg[0]
	}
	return &Error{
		Description: description,
		StatusCode:  http.StatusNotFound,
	}
}

func ErrUnauthorized(msg ...string) *Error {
	description := "Unauthorized"
	if len(msg) > 0 {
		description = msg[0]
	}
	return &Error{
		Description: description,
		StatusCode:  http.StatusUnauthorized,
	}
}

func ErrApplicationError(msg ...string) *Error {
	description := "Application error"
	if len(msg) > 0 {
		description = msg[0]
	}
	return &Error{
		Description: description,
		StatusCode:  http.StatusInternalServerError,
	}
}
