package media

import "fmt"

// ErrorKind classifies a device-access failure, mapped from the platform
// device layer's own error taxonomy.
type ErrorKind string

const (
	KindPermissionDenied ErrorKind = "permission_denied"
	KindDeviceNotFound   ErrorKind = "device_not_found"
	KindDeviceBusy       ErrorKind = "device_busy"
	KindUnknown          ErrorKind = "unknown"
)

// DeviceError is a terminal device-access failure. It is surfaced to the user
// as an actionable message and is never retried automatically beyond the
// one-shot fresh-stream recovery in the manager.
type DeviceError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Remedy returns a user-facing suggestion for the failure kind.
func (e *DeviceError) Remedy() string {
	switch e.Kind {
	case KindPermissionDenied:
		return "Allow camera and microphone access in your system settings."
	case KindDeviceNotFound:
		return "Camera or microphone not found. Check your devices."
	case KindDeviceBusy:
		return "The device is in use by another application. Close other apps using it."
	default:
		return "Check device permissions and try again."
	}
}

// AsDeviceError returns the DeviceError inside err, or wraps err as Unknown.
func AsDeviceError(op string, err error) *DeviceError {
	if de, ok := err.(*DeviceError); ok {
		return de
	}
	return &DeviceError{Kind: KindUnknown, Op: op, Err: err}
}
