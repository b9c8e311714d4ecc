package layout

import (
	"fmt"
	"runtime"

	"github.com/ardanlabs/ffi-bindgen/cast"
)

// ABI describes the scalar sizes and alignments of a target platform.
type ABI struct {
	Name            string
	PointerSize     uint64
	LongSize        uint64
	LongDoubleSize  uint64
	LongDoubleAlign uint32
	Int64Align      uint32
	DoubleAlign     uint32
}

var abis = map[string]ABI{
	"linux/amd64":   {PointerSize: 8, LongSize: 8, LongDoubleSize: 16, LongDoubleAlign: 16, Int64Align: 8, DoubleAlign: 8},
	"linux/arm64":   {PointerSize: 8, LongSize: 8, LongDoubleSize: 16, LongDoubleAlign: 16, Int64Align: 8, DoubleAlign: 8},
	"linux/riscv64": {PointerSize: 8, LongSize: 8, LongDoubleSize: 16, LongDoubleAlign: 16, Int64Align: 8, DoubleAlign: 8},
	"linux/386":     {PointerSize: 4, LongSize: 4, LongDoubleSize: 12, LongDoubleAlign: 4, Int64Align: 4, DoubleAlign: 4},
	"linux/arm":     {PointerSize: 4, LongSize: 4, LongDoubleSize: 8, LongDoubleAlign: 8, Int64Align: 8, DoubleAlign: 8},
	"freebsd/amd64": {PointerSize: 8, LongSize: 8, LongDoubleSize: 16, LongDoubleAlign: 16, Int64Align: 8, DoubleAlign: 8},
	"darwin/amd64":  {PointerSize: 8, LongSize: 8, LongDoubleSize: 16, LongDoubleAlign: 16, Int64Align: 8, DoubleAlign: 8},
	"darwin/arm64":  {PointerSize: 8, LongSize: 8, LongDoubleSize: 8, LongDoubleAlign: 8, Int64Align: 8, DoubleAlign: 8},
	"windows/amd64": {PointerSize: 8, LongSize: 4, LongDoubleSize: 8, LongDoubleAlign: 8, Int64Align: 8, DoubleAlign: 8},
	"windows/arm64": {PointerSize: 8, LongSize: 4, LongDoubleSize: 8, LongDoubleAlign: 8, Int64Align: 8, DoubleAlign: 8},
	"windows/386":   {PointerSize: 4, LongSize: 4, LongDoubleSize: 8, LongDoubleAlign: 8, Int64Align: 8, DoubleAlign: 8},
}

// ABIFor returns the ABI for a GOOS/GOARCH pair.
func ABIFor(goos, goarch string) (ABI, error) {
	name := goos + "/" + goarch
	abi, ok := abis[name]
	if !ok {
		return ABI{}, fmt.Errorf("unsupported target %s", name)
	}
	abi.Name = name
	return abi, nil
}

// HostABI returns the ABI of the running platform, falling back to
// linux/amd64 for targets missing from the table.
func HostABI() ABI {
	abi, err := ABIFor(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		abi, _ = ABIFor("linux", "amd64")
	}
	return abi
}

// Builtin returns the size and alignment of a builtin kind. Void has no size.
func (a ABI) Builtin(k cast.BuiltinKind) (uint64, uint32, bool) {
	switch k {
	case cast.Bool, cast.Char, cast.SChar, cast.UChar, cast.Int8, cast.UInt8:
		return 1, 1, true
	case cast.Short, cast.UShort, cast.Int16, cast.UInt16:
		return 2, 2, true
	case cast.Int, cast.UInt, cast.Int32, cast.UInt32, cast.Float:
		return 4, 4, true
	case cast.LongLong, cast.ULongLong, cast.Int64, cast.UInt64:
		return 8, a.Int64Align, true
	case cast.Double:
		return 8, a.DoubleAlign, true
	case cast.Long, cast.ULong:
		return a.LongSize, a.intAlign(a.LongSize), true
	case cast.SizeT, cast.SSizeT, cast.IntPtr, cast.UIntPtr, cast.PtrDiff:
		return a.PointerSize, a.intAlign(a.PointerSize), true
	case cast.LongDouble:
		return a.LongDoubleSize, a.LongDoubleAlign, true
	case cast.Int128, cast.UInt128:
		return 16, 16, true
	}
	return 0, 0, false
}

func (a ABI) intAlign(size uint64) uint32 {
	if size == 8 {
		return a.Int64Align
	}
	return uint32(size)
}

// PointerAlign is the alignment of any data or function pointer.
func (a ABI) PointerAlign() uint32 { return uint32(a.PointerSize) }
