package media

import "errors"

var (
	// ErrRejected is returned when an upload's declared content type is not allowed.
	ErrRejected = errors.New("upload rejected")
	// ErrDecode is returned when the input bytes are not a supported image.
	ErrDecode = errors.New("image decode failed")
	// ErrEncode is returned when the target format cannot be produced.
	ErrEncode = errors.New("image encode failed")
)

// RejectedError carries the human-readable reason for a rejected upload.
type RejectedError struct {
	ContentType string
	Reason      string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}
