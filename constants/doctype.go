package constants

// DocType tags one of the known contract layout families. The type is
// supplied by the batch context (file naming conventions); this module never
// classifies documents itself.
type DocType int

const (
	DocTypeUndefined DocType = 0
	DocType1         DocType = 1
	DocType2         DocType = 2
	DocType3         DocType = 3
	DocType4         DocType = 4
	DocType5         DocType = 5
)

// DocTypes lists the concrete (non-undefined) document types.
var DocTypes = []DocType{DocType1, DocType2, DocType3, DocType4, DocType5}

func (t DocType) Valid() bool {
	return t >= DocType1 && t <= DocType5
}

func (t DocType) String() string {
	switch t {
	case DocType1:
		return "TYPE_1"
	case DocType2:
		return "TYPE_2"
	case DocType3:
		return "TYPE_3"
	case DocType4:
		return "TYPE_4"
	case DocType5:
		return "TYPE_5"
	default:
		return "UNDEFINED"
	}
}
