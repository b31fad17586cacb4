package constants

// FieldKind names the slots an extraction produces.
type FieldKind string

const (
	FieldContractNumber FieldKind = "contract_number" // 9-digit account (BAN) number
	FieldContractDate   FieldKind = "contract_date"
	FieldCustomerType   FieldKind = "customer_type"
	FieldTaxID          FieldKind = "tax_id" // EMBG/EDB, usually 13 digits
)

// FieldKinds is the full set; every concrete DocType has a schema entry for
// each of these, possibly empty.
var FieldKinds = []FieldKind{FieldContractNumber, FieldContractDate, FieldCustomerType, FieldTaxID}

// RegionKind names a croppable page region described by layout fractions.
type RegionKind string

const (
	RegionTable    RegionKind = "table"
	RegionCheckbox RegionKind = "checkbox"
)
