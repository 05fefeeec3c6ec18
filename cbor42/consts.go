package cbor42

// Major is the CBOR major type held in the high 3 bits of a leading byte.
type Major byte

const (
	MajorUnsigned Major = 0x00
	MajorNegative Major = 0x01
	MajorBytes    Major = 0x02
	MajorText     Major = 0x03
	MajorList     Major = 0x04
	MajorMap      Major = 0x05
	MajorTag      Major = 0x06
	MajorSimple   Major = 0x07
)

// Additional information (low 5 bits)
const (
	infoMask      byte = 0x1f
	maxInline     byte = 0x17
	infoUint8     byte = 0x18
	infoUint16    byte = 0x19
	infoUint32    byte = 0x1a
	infoUint64    byte = 0x1b
	infoReserved  byte = 0x1c // 28..31: reserved and indefinite-length forms
	majorShift         = 5
	simpleFalse   byte = 0xf4
	simpleTrue    byte = 0xf5
	simpleNull    byte = 0xf6
	simpleUndef   byte = 0xf7
	simpleFloat16 byte = 0xf9
	simpleFloat32 byte = 0xfa
	simpleFloat64 byte = 0xfb
)

// Links are tag 42 in its one-byte tag form, wrapping a byte string with a
// one-byte length.
const (
	TagCID        uint64 = 42
	tagUint8Lead  byte   = 0xd8
	linkBytesLead byte   = 0x58
)

func head(major Major, info byte) byte { return byte(major)<<majorShift | info }

func split(b byte) (Major, byte) { return Major(b >> majorShift), b & infoMask }
