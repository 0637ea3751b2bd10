// ABOUTME: Driver status codes
// ABOUTME: Maps the driver ABI's result values to Go errors
package asio

import "fmt"

// Status is the result code returned by driver methods.
type Status int32

const (
	StatusOK               Status = 0
	StatusSuccess          Status = 0x3f4847a0 // returned by Future() for a supported selector
	StatusNotPresent       Status = -1000
	StatusHWMalfunction    Status = -999
	StatusInvalidParameter Status = -998
	StatusInvalidMode      Status = -997
	StatusSPNotAdvancing   Status = -996
	StatusNoClock          Status = -995
	StatusNoMemory         Status = -994
)

// Err converts a status into an error, nil for the two success codes.
func (s Status) Err() error {
	if s == StatusOK || s == StatusSuccess {
		return nil
	}
	return s
}

func (s Status) Error() string {
	return "asio: " + s.String()
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSuccess:
		return "success"
	case StatusNotPresent:
		return "hardware not present"
	case StatusHWMalfunction:
		return "hardware malfunction"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusInvalidMode:
		return "invalid mode"
	case StatusSPNotAdvancing:
		return "sample position not advancing"
	case StatusNoClock:
		return "no clock"
	case StatusNoMemory:
		return "out of memory"
	default:
		return fmt.Sprintf("status %d", int32(s))
	}
}
