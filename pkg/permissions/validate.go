package permissions

import (
	"bytes"
	"encoding/json"
)

// Validate checks the structure of a raw permission document and decodes it.
// zones and wards must be arrays of integers, categories an array of
// strings, and features an object carrying every flag as a boolean.
func Validate(raw []byte) (Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Document{}, invalidf("document must be an object")
	}

	var doc Document
	if err := decodeSet(fields, "zones", &doc.Zones); err != nil {
		return Document{}, err
	}
	if err := decodeSet(fields, "wards", &doc.Wards); err != nil {
		return Document{}, err
	}
	if err := decodeSet(fields, "categories", &doc.Categories); err != nil {
		return Document{}, err
	}

	rawFeatures, ok := fields["features"]
	if !ok {
		return Document{}, invalidf("features is required")
	}
	var flags map[string]json.RawMessage
	if err := json.Unmarshal(rawFeatures, &flags); err != nil || flags == nil {
		return Document{}, invalidf("features must be an object")
	}
	for _, feature := range AllFeatures {
		v, ok := flags[string(feature)]
		if !ok {
			return Document{}, invalidf("features.%s is required", feature)
		}
		var b bool
		if !isBool(v) || json.Unmarshal(v, &b) != nil {
			return Document{}, invalidf("features.%s must be a boolean", feature)
		}
		doc.Features.Set(feature, b)
	}
	return doc, nil
}

// ValidatePatch checks a partial document. Present scope sets must be
// arrays of the right element type and present flags must be known booleans.
func ValidatePatch(raw []byte) (Patch, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Patch{}, invalidf("document must be an object")
	}

	var p Patch
	if _, ok := fields["zones"]; ok {
		p.Zones = new(IDSet[int64])
		if err := decodeSet(fields, "zones", p.Zones); err != nil {
			return Patch{}, err
		}
	}
	if _, ok := fields["wards"]; ok {
		p.Wards = new(IDSet[int64])
		if err := decodeSet(fields, "wards", p.Wards); err != nil {
			return Patch{}, err
		}
	}
	if _, ok := fields["categories"]; ok {
		p.Categories = new(IDSet[string])
		if err := decodeSet(fields, "categories", p.Categories); err != nil {
			return Patch{}, err
		}
	}
	if rawFeatures, ok := fields["features"]; ok {
		var flags map[string]json.RawMessage
		if err := json.Unmarshal(rawFeatures, &flags); err != nil || flags == nil {
			return Patch{}, invalidf("features must be an object")
		}
		p.Features = make(map[Feature]bool, len(flags))
		for name, v := range flags {
			feature, err := ParseFeature(name)
			if err != nil {
				return Patch{}, invalidf("%v", err)
			}
			var b bool
			if !isBool(v) || json.Unmarshal(v, &b) != nil {
				return Patch{}, invalidf("features.%s must be a boolean", name)
			}
			p.Features[feature] = b
		}
	}
	return p, nil
}

func decodeSet(fields map[string]json.RawMessage, name string, dest json.Unmarshaler) error {
	v, ok := fields[name]
	if !ok {
		return invalidf("%s is required", name)
	}
	if !isArray(v) {
		return invalidf("%s must be an array", name)
	}
	if err := dest.UnmarshalJSON(v); err != nil {
		return invalidf("%s: %v", name, err)
	}
	return nil
}

func isArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}

func isBool(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return bytes.Equal(v, []byte("true")) || bytes.Equal(v, []byte("false"))
}
