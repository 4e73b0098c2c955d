package mmsclient

import "strings"

// Quality is an IEC 61850 quality bit string in libiec61850's integer layout.
type Quality uint32

const (
	QUALITY_VALIDITY_GOOD         Quality = 0
	QUALITY_VALIDITY_RESERVED     Quality = 1
	QUALITY_VALIDITY_INVALID      Quality = 2
	QUALITY_VALIDITY_QUESTIONABLE Quality = 3

	QUALITY_DETAIL_OVERFLOW      Quality = 4
	QUALITY_DETAIL_OUT_OF_RANGE  Quality = 8
	QUALITY_DETAIL_BAD_REFERENCE Quality = 16
	QUALITY_DETAIL_OSCILLATORY   Quality = 32
	QUALITY_DETAIL_FAILURE       Quality = 64
	QUALITY_DETAIL_OLD_DATA      Quality = 128
	QUALITY_DETAIL_INCONSISTENT  Quality = 256
	QUALITY_DETAIL_INACCURATE    Quality = 512
	QUALITY_SOURCE_SUBSTITUTED   Quality = 1024
	QUALITY_TEST                 Quality = 2048
	QUALITY_OPERATOR_BLOCKED     Quality = 4096
	QUALITY_DERIVED              Quality = 8192
)

var qualityFlags = []struct {
	bit  Quality
	name string
}{
	{QUALITY_DETAIL_OVERFLOW, "Overflow"},
	{QUALITY_DETAIL_OUT_OF_RANGE, "OutOfRange"},
	{QUALITY_DETAIL_BAD_REFERENCE, "BadReference"},
	{QUALITY_DETAIL_OSCILLATORY, "Oscillatory"},
	{QUALITY_DETAIL_FAILURE, "Failure"},
	{QUALITY_DETAIL_OLD_DATA, "OldData"},
	{QUALITY_DETAIL_INCONSISTENT, "Inconsistent"},
	{QUALITY_DETAIL_INACCURATE, "Inaccurate"},
	{QUALITY_SOURCE_SUBSTITUTED, "Substituted"},
	{QUALITY_TEST, "Test"},
	{QUALITY_OPERATOR_BLOCKED, "OperatorBlocked"},
	{QUALITY_DERIVED, "Derived"},
}

func (q Quality) Validity() Quality {
	return q & 0x3
}

// String returns "Good" for a good quality without detail flags, otherwise
// the validity followed by every set flag, joined by "|".
func (q Quality) String() string {
	var parts []string
	switch q.Validity() {
	case QUALITY_VALIDITY_GOOD:
		parts = append(parts, "Good")
	case QUALITY_VALIDITY_RESERVED:
		parts = append(parts, "Reserved")
	case QUALITY_VALIDITY_INVALID:
		parts = append(parts, "Invalid")
	case QUALITY_VALIDITY_QUESTIONABLE:
		parts = append(parts, "Questionable")
	}
	for _, f := range qualityFlags {
		if q&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}
