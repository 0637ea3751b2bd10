// ABOUTME: ASIO sample type codes
// ABOUTME: Enumerates the hardware sample formats a driver can report per channel
package asio

import "fmt"

// SampleType is the format code a driver reports for a channel.
type SampleType int32

// Sample type codes as defined by the driver ABI. MSB means big-endian,
// LSB little-endian. The Int32xxNN variants carry NN significant bits in a
// 32-bit container.
const (
	SampleTypeInt16MSB   SampleType = 0
	SampleTypeInt24MSB   SampleType = 1
	SampleTypeInt32MSB   SampleType = 2
	SampleTypeFloat32MSB SampleType = 3
	SampleTypeFloat64MSB SampleType = 4

	SampleTypeInt32MSB16 SampleType = 8
	SampleTypeInt32MSB18 SampleType = 9
	SampleTypeInt32MSB20 SampleType = 10
	SampleTypeInt32MSB24 SampleType = 11

	SampleTypeInt16LSB   SampleType = 16
	SampleTypeInt24LSB   SampleType = 17
	SampleTypeInt32LSB   SampleType = 18
	SampleTypeFloat32LSB SampleType = 19
	SampleTypeFloat64LSB SampleType = 20

	SampleTypeInt32LSB16 SampleType = 24
	SampleTypeInt32LSB18 SampleType = 25
	SampleTypeInt32LSB20 SampleType = 26
	SampleTypeInt32LSB24 SampleType = 27

	SampleTypeDSDInt8LSB1 SampleType = 32
	SampleTypeDSDInt8MSB1 SampleType = 33
	SampleTypeDSDInt8NER8 SampleType = 40
)

var sampleTypeNames = map[SampleType]string{
	SampleTypeInt16MSB:    "Int16MSB",
	SampleTypeInt24MSB:    "Int24MSB",
	SampleTypeInt32MSB:    "Int32MSB",
	SampleTypeFloat32MSB:  "Float32MSB",
	SampleTypeFloat64MSB:  "Float64MSB",
	SampleTypeInt32MSB16:  "Int32MSB16",
	SampleTypeInt32MSB18:  "Int32MSB18",
	SampleTypeInt32MSB20:  "Int32MSB20",
	SampleTypeInt32MSB24:  "Int32MSB24",
	SampleTypeInt16LSB:    "Int16LSB",
	SampleTypeInt24LSB:    "Int24LSB",
	SampleTypeInt32LSB:    "Int32LSB",
	SampleTypeFloat32LSB:  "Float32LSB",
	SampleTypeFloat64LSB:  "Float64LSB",
	SampleTypeInt32LSB16:  "Int32LSB16",
	SampleTypeInt32LSB18:  "Int32LSB18",
	SampleTypeInt32LSB20:  "Int32LSB20",
	SampleTypeInt32LSB24:  "Int32LSB24",
	SampleTypeDSDInt8LSB1: "DSDInt8LSB1",
	SampleTypeDSDInt8MSB1: "DSDInt8MSB1",
	SampleTypeDSDInt8NER8: "DSDInt8NER8",
}

// SampleTypes lists every defined code in ascending order.
var SampleTypes = []SampleType{
	SampleTypeInt16MSB, SampleTypeInt24MSB, SampleTypeInt32MSB, SampleTypeFloat32MSB, SampleTypeFloat64MSB,
	SampleTypeInt32MSB16, SampleTypeInt32MSB18, SampleTypeInt32MSB20, SampleTypeInt32MSB24,
	SampleTypeInt16LSB, SampleTypeInt24LSB, SampleTypeInt32LSB, SampleTypeFloat32LSB, SampleTypeFloat64LSB,
	SampleTypeInt32LSB16, SampleTypeInt32LSB18, SampleTypeInt32LSB20, SampleTypeInt32LSB24,
	SampleTypeDSDInt8LSB1, SampleTypeDSDInt8MSB1, SampleTypeDSDInt8NER8,
}

// Defined reports whether t is one of the codes the ABI defines.
func (t SampleType) Defined() bool {
	_, ok := sampleTypeNames[t]
	return ok
}

func (t SampleType) String() string {
	if name, ok := sampleTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("SampleType(%d)", int32(t))
}
