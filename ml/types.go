// types.go - Datentypen fuer Tensor-Elemente
// Dieses Modul definiert DType und die Groessen der unterstuetzten Typen.
package ml

import "fmt"

// DType represents the data type of tensor elements.
type DType int

const (
	DTypeOther DType = iota
	DTypeF32
	DTypeF16
	DTypeBF16
	DTypeI32
)

// Size returns the width of one element in bytes, or 0 for DTypeOther.
func (d DType) Size() int {
	switch d {
	case DTypeF32, DTypeI32:
		return 4
	case DTypeF16, DTypeBF16:
		return 2
	default:
		return 0
	}
}

func (d DType) String() string {
	switch d {
	case DTypeF32:
		return "F32"
	case DTypeF16:
		return "F16"
	case DTypeBF16:
		return "BF16"
	case DTypeI32:
		return "I32"
	default:
		return fmt.Sprintf("DType(%d)", int(d))
	}
}

// ParseDType maps a dtype name as printed by String back to its DType.
func ParseDType(s string) (DType, error) {
	switch s {
	case "F32", "f32", "float32":
		return DTypeF32, nil
	case "F16", "f16", "float16":
		return DTypeF16, nil
	case "BF16", "bf16", "bfloat16":
		return DTypeBF16, nil
	case "I32", "i32", "int32":
		return DTypeI32, nil
	default:
		return DTypeOther, fmt.Errorf("ml: unknown dtype %q", s)
	}
}
