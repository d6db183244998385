package issuance

import "strings"

// AwrType is the document category of an AWR request
type AwrType string

const (
	AwrTypeOthers    AwrType = "Others"
	AwrTypeFPS       AwrType = "FPS"
	AwrTypeIMS       AwrType = "IMS"
	AwrTypeMicro     AwrType = "MICRO"
	AwrTypePM        AwrType = "PM"
	AwrTypeRM        AwrType = "RM"
	AwrTypeStability AwrType = "STABILITY"
	AwrTypeWater     AwrType = "WATER"
)

// AllAwrTypes returns all valid AwrType values
func AllAwrTypes() []AwrType {
	return []AwrType{
		AwrTypeOthers, AwrTypeFPS, AwrTypeIMS, AwrTypeMicro,
		AwrTypePM, AwrTypeRM, AwrTypeStability, AwrTypeWater,
	}
}

// IsValid checks if the AwrType is a valid value
func (t AwrType) IsValid() bool {
	for _, v := range AllAwrTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// String returns the string representation of AwrType
func (t AwrType) String() string {
	return string(t)
}

// ParseAwrType matches a type name case-insensitively
func ParseAwrType(value string) (AwrType, bool) {
	v := strings.TrimSpace(value)
	for _, t := range AllAwrTypes() {
		if strings.EqualFold(string(t), v) {
			return t, true
		}
	}
	return "", false
}
