package schema

// Kind is the category of a field type.
type Kind uint8

const (
	KindUint Kind = iota
	KindInt
	KindBool
	KindFixedBytes
	KindAddress
	KindFunction
	KindBytes
	KindString
	KindArray
	KindSlice
	KindTuple
)

var kindNames = [...]string{
	KindUint:       "uint",
	KindInt:        "int",
	KindBool:       "bool",
	KindFixedBytes: "bytesN",
	KindAddress:    "address",
	KindFunction:   "function",
	KindBytes:      "bytes",
	KindString:     "string",
	KindArray:      "array",
	KindSlice:      "slice",
	KindTuple:      "tuple",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether values of this kind occupy exactly one word.
func (k Kind) IsScalar() bool {
	return k <= KindFunction
}

const (
	AddressSize  = 20
	FunctionSize = 24
	MaxIntBits   = 256
	MaxFixedSize = 32
)
