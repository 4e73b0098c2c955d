package mmsclient

import "strings"

// FC is an IEC 61850 functional constraint. Values match libiec61850's
// FunctionalConstraint enum.
type FC int

const (
	NONE FC = -1
	ST   FC = 0
	MX   FC = 1
	SP   FC = 2
	SV   FC = 3
	CF   FC = 4
	DC   FC = 5
	SG   FC = 6
	SE   FC = 7
	SR   FC = 8
	OR   FC = 9
	BL   FC = 10
	EX   FC = 11
	CO   FC = 12
	US   FC = 13
	MS   FC = 14
	RP   FC = 15
	BR   FC = 16
	LG   FC = 17
	GO   FC = 18
	ALL  FC = 99
)

var fcNames = map[FC]string{
	ST: "ST", MX: "MX", SP: "SP", SV: "SV", CF: "CF", DC: "DC", SG: "SG",
	SE: "SE", SR: "SR", OR: "OR", BL: "BL", EX: "EX", CO: "CO", US: "US",
	MS: "MS", RP: "RP", BR: "BR", LG: "LG", GO: "GO", ALL: "ALL",
}

// String implements fmt.Stringer for FC. It returns the short IEC 61850
// abbreviation like "ST", "MX", etc.
func (f FC) String() string {
	if s, ok := fcNames[f]; ok {
		return s
	}
	return "NONE"
}

// FunctionalConstraintFromString parses an FC abbreviation, case-insensitive.
// Unknown input yields NONE.
func FunctionalConstraintFromString(s string) FC {
	s = strings.ToUpper(strings.TrimSpace(s))
	for fc, name := range fcNames {
		if name == s {
			return fc
		}
	}
	return NONE
}

// splitFCSuffix splits a data directory entry like "stVal[ST]" into its
// name and FC. Entries without a suffix return NONE.
func splitFCSuffix(raw string) (string, FC) {
	i := strings.LastIndex(raw, "[")
	if i == -1 || !strings.HasSuffix(raw, "]") || i >= len(raw)-1 {
		return raw, NONE
	}
	return raw[:i], FunctionalConstraintFromString(raw[i+1 : len(raw)-1])
}

func (f FC) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *FC) UnmarshalText(b []byte) error {
	*f = FunctionalConstraintFromString(string(b))
	return nil
}
