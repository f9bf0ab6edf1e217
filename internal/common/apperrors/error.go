package apperrors

// Error is a layered application error. Errors are declared as package-level
// sentinels with New and refined at call sites with New/Msg/MsgErr/Err.
// Derived errors keep an ancestry link so errors.Is matches any ancestor
// sentinel, and may wrap underlying causes which are matched as well.
type Error interface {
	Error() string
	ErrorAll() string
	New(msg string) Error
	Msg(msg string) Error
	MsgErr(msg string, err ...error) Error
	Err(err ...error) Error
	Unwrap() []error
	Is(target error) bool
	SetExpandError(expand bool) Error
	SetStatusCode(code int) Error
	StatusCode() int
}
