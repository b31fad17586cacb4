package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dkitanovski/contract-extractor/constants"
)

// overrideSchema constrains the optional schema-override file. Digit counts
// and layout fractions drifted across revisions of the source documents, so
// they are auditable configuration rather than code.
const overrideSchema = `{
  "type": "object",
  "additionalProperties": false,
  "patternProperties": {
    "^TYPE_[1-5]$": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "capabilities": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "has_table": {"type": "boolean"},
            "has_checkbox": {"type": "boolean"},
            "ambiguous_id": {"type": "boolean"}
          }
        },
        "layout": {
          "type": "object",
          "additionalProperties": false,
          "patternProperties": {
            "^(table|checkbox)$": {
              "type": "array",
              "minItems": 2,
              "maxItems": 2,
              "items": {
                "type": "array",
                "minItems": 2,
                "maxItems": 2,
                "items": {"type": "number", "minimum": 0, "maximum": 1}
              }
            }
          }
        },
        "fields": {
          "type": "object",
          "additionalProperties": false,
          "patternProperties": {
            "^(contract_number|contract_date|customer_type|tax_id)$": {
              "type": "object",
              "additionalProperties": false,
              "properties": {
                "digital": {"$ref": "#/$defs/pattern"},
                "scanned": {"$ref": "#/$defs/pattern"}
              }
            }
          }
        },
        "keywords": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "resident": {"type": "string"},
            "business": {"type": "string"}
          }
        },
        "tax_id_digits": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "min": {"type": "integer", "minimum": 1},
            "max": {"type": "integer", "minimum": 1}
          },
          "required": ["min", "max"]
        }
      }
    }
  },
  "$defs": {
    "pattern": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "literal": {"type": "string"},
        "alternatives": {"type": "array", "items": {"type": "string"}},
        "anchor": {"type": "string"},
        "suffix": {"type": "string"}
      }
    }
  }
}`

type patternJSON struct {
	Literal      string   `json:"literal"`
	Alternatives []string `json:"alternatives"`
	Anchor       string   `json:"anchor"`
	Suffix       string   `json:"suffix"`
}

type fieldJSON struct {
	Digital *patternJSON `json:"digital"`
	Scanned *patternJSON `json:"scanned"`
}

type typeJSON struct {
	Capabilities *struct {
		HasTable    bool `json:"has_table"`
		HasCheckbox bool `json:"has_checkbox"`
		AmbiguousID bool `json:"ambiguous_id"`
	} `json:"capabilities"`
	Layout   map[string][2][2]float64 `json:"layout"`
	Fields   map[string]fieldJSON     `json:"fields"`
	Keywords *struct {
		Resident string `json:"resident"`
		Business string `json:"business"`
	} `json:"keywords"`
	TaxIDDigits *struct {
		Min int `json:"min"`
		Max int `json:"max"`
	} `json:"tax_id_digits"`
}

// LoadFile applies the overrides in path on top of the builtin registry.
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Load(raw)
}

// Load validates raw JSON overrides and merges them over the builtin tables.
func Load(raw []byte) (*Registry, error) {
	if err := validateOverride(raw); err != nil {
		return nil, err
	}
	var doc map[string]typeJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode schema overrides: %w", err)
	}

	reg := Builtin()
	for name, tj := range doc {
		dt, ok := docTypeByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown document type %q", name)
		}
		ts := reg.types[dt]
		if err := applyOverride(&ts, tj); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		reg.types[dt] = ts
	}
	return reg, nil
}

func validateOverride(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("override.json", bytes.NewReader([]byte(overrideSchema))); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	sch, err := compiler.Compile("override.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal overrides: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("overrides do not match schema: %w", err)
	}
	return nil
}

func applyOverride(ts *TypeSchema, tj typeJSON) error {
	if tj.Capabilities != nil {
		ts.Capabilities = Capabilities{
			HasTable:    tj.Capabilities.HasTable,
			HasCheckbox: tj.Capabilities.HasCheckbox,
			AmbiguousID: tj.Capabilities.AmbiguousID,
		}
	}
	for name, corners := range tj.Layout {
		r := Region{
			X0: corners[0][0], Y0: corners[0][1],
			X1: corners[1][0], Y1: corners[1][1],
		}
		if !r.Valid() {
			return fmt.Errorf("layout %s: corners must be ordered top-left, bottom-right", name)
		}
		if ts.Layout == nil {
			ts.Layout = map[constants.RegionKind]Region{}
		}
		ts.Layout[constants.RegionKind(name)] = r
	}
	for name, fj := range tj.Fields {
		fs := ts.Fields[constants.FieldKind(name)]
		if fj.Digital != nil {
			fs.Digital = toPattern(*fj.Digital)
		}
		if fj.Scanned != nil {
			fs.Scanned = toPattern(*fj.Scanned)
		}
		if ts.Fields == nil {
			ts.Fields = map[constants.FieldKind]FieldSchema{}
		}
		ts.Fields[constants.FieldKind(name)] = fs
	}
	if tj.Keywords != nil {
		ts.ResidentKeyword = tj.Keywords.Resident
		ts.BusinessKeyword = tj.Keywords.Business
	}
	if tj.TaxIDDigits != nil {
		if tj.TaxIDDigits.Min > tj.TaxIDDigits.Max {
			return fmt.Errorf("tax_id_digits: min %d exceeds max %d", tj.TaxIDDigits.Min, tj.TaxIDDigits.Max)
		}
		ts.TaxIDDigits = DigitRange{Min: tj.TaxIDDigits.Min, Max: tj.TaxIDDigits.Max}
	}
	return nil
}

func toPattern(pj patternJSON) Pattern {
	switch {
	case pj.Anchor != "" || pj.Suffix != "":
		return Pattern{Anchored: &Anchored{Anchor: pj.Anchor, Suffix: pj.Suffix}}
	case len(pj.Alternatives) > 0:
		return Pattern{Alternatives: pj.Alternatives}
	default:
		return Pattern{Literal: pj.Literal}
	}
}

func docTypeByName(name string) (constants.DocType, bool) {
	for _, dt := range constants.DocTypes {
		if dt.String() == name {
			return dt, true
		}
	}
	return constants.DocTypeUndefined, false
}
