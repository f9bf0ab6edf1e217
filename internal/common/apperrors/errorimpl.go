package apperrors

// appError implements the apperrors.Error interface.
type appError struct {
	msg           string
	base          Error
	wrappedErrors []error
	statuscode    int
	expandError   bool
}

func (e *appError) Error() string {
	return e.msg
}

func (e *appError) ErrorAll() string {
	if !e.expandError || len(e.wrappedErrors) == 0 {
		return e.msg
	}
	msg := e.msg + ": "
	for i, err := range e.wrappedErrors {
		if i > 0 {
			msg += "; "
		}
		msg += err.Error()
	}
	return msg
}

func (e *appError) Unwrap() []error {
	return e.wrappedErrors
}

// New derives a child error. The child inherits the status code and expand
// setting and keeps e as its ancestor for Is matching.
func (e *appError) New(msg string) Error {
	return &appError{
		msg:         msg,
		base:        e,
		statuscode:  e.statuscode,
		expandError: e.expandError,
	}
}

// Msg derives a child with a replaced message. The receiver is never mutated
// so package-level sentinels stay stable under concurrent use.
func (e *appError) Msg(msg string) Error {
	child := e.New(msg).(*appError)
	return child
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	child := e.New(msg).(*appError)
	child.wrappedErrors = append(child.wrappedErrors, err...)
	return child
}

func (e *appError) Err(err ...error) Error {
	child := e.New(e.msg).(*appError)
	child.wrappedErrors = append(child.wrappedErrors, err...)
	return child
}

func (e *appError) Is(target error) bool {
	if e == target || e.base == target {
		return true
	}
	if e.base != nil && e.base.Is(target) {
		return true
	}
	for _, err := range e.wrappedErrors {
		if err == target {
			return true
		}
	}
	return false
}

func (e *appError) SetExpandError(expand bool) Error {
	e.expandError = expand
	return e
}

func (e *appError) SetStatusCode(code int) Error {
	e.statuscode = code
	return e
}

func (e *appError) StatusCode() int {
	return e.statuscode
}

func New(msg string) Error {
	return &appError{
		msg: msg,
	}
}
