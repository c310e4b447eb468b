package domain

type UploadErrorKind int

const (
	UploadEncode UploadErrorKind = iota + 1
	UploadTransport
)

func (k UploadErrorKind) String() string {
	if k == UploadEncode {
		return "encode"
	}
	return "upload"
}

// UploadError is returned by the media gateway.
type UploadError struct {
	Kind UploadErrorKind
	Err  error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return "image " + e.Kind.String() + " failed: " + e.Err.Error()
	}
	return "image " + e.Kind.String() + " failed"
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) Is(target error) bool {
	t, ok := target.(*UploadError)
	return ok && t.Kind == e.Kind
}

var (
	ErrEncode = &UploadError{Kind: UploadEncode}
	ErrUpload = &UploadError{Kind: UploadTransport}
)
