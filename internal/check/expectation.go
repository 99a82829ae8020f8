package check

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PageExpectationKind names the tagged variants of PageExpectation.
type PageExpectationKind string

const (
	ValidCode       PageExpectationKind = "ValidCode"
	ValidContent    PageExpectationKind = "ValidContent"
	ValidAddress    PageExpectationKind = "ValidAddress"
	ValidLength     PageExpectationKind = "ValidLength"
	ValidNoContent  PageExpectationKind = "ValidNoContent"
	ValidNoAddress  PageExpectationKind = "ValidNoAddress"
	ValidNoLength   PageExpectationKind = "ValidNoLength"
)

var pageNoArgKinds = map[PageExpectationKind]bool{
	ValidNoContent: true,
	ValidNoAddress: true,
	ValidNoLength:  true,
}

// PageExpectation is the closed sum type described in the data model:
// ValidCode(u32) | ValidContent(string) | ValidAddress(string) |
// ValidLength(uint) | ValidNoContent | ValidNoAddress | ValidNoLength.
type PageExpectation struct {
	Kind    PageExpectationKind
	Code    uint32
	Content string
	Address string
	Length  uint64
}

// UnmarshalJSON accepts both the no-argument bare-string form ("ValidNoContent")
// and the single-key object form ({"ValidCode": 200}). Any other variant name
// fails parsing with a message containing "unknown variant" per the external
// interface contract.
func (p *PageExpectation) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		kind := PageExpectationKind(bare)
		if !pageNoArgKinds[kind] {
			return fmt.Errorf("unknown variant %q for PageExpectation (expected one of ValidNoContent, ValidNoAddress, ValidNoLength as bare strings)", bare)
		}
		p.Kind = kind
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("page expectation must be a string or single-key object: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("page expectation object must have exactly one key, got %d", len(obj))
	}

	for key, raw := range obj {
		switch PageExpectationKind(key) {
		case ValidCode:
			var v uint32
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("ValidCode: %w", err)
			}
			*p = PageExpectation{Kind: ValidCode, Code: v}
		case ValidContent:
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("ValidContent: %w", err)
			}
			*p = PageExpectation{Kind: ValidContent, Content: v}
		case ValidAddress:
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("ValidAddress: %w", err)
			}
			*p = PageExpectation{Kind: ValidAddress, Address: v}
		case ValidLength:
			var v uint64
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("ValidLength: %w", err)
			}
			*p = PageExpectation{Kind: ValidLength, Length: v}
		default:
			return fmt.Errorf("unknown variant %q for PageExpectation", key)
		}
	}
	return nil
}

// MarshalJSON renders the same two shapes UnmarshalJSON accepts.
func (p PageExpectation) MarshalJSON() ([]byte, error) {
	if pageNoArgKinds[p.Kind] {
		return json.Marshal(string(p.Kind))
	}
	switch p.Kind {
	case ValidCode:
		return json.Marshal(map[string]uint32{string(ValidCode): p.Code})
	case ValidContent:
		return json.Marshal(map[string]string{string(ValidContent): p.Content})
	case ValidAddress:
		return json.Marshal(map[string]string{string(ValidAddress): p.Address})
	case ValidLength:
		return json.Marshal(map[string]uint64{string(ValidLength): p.Length})
	default:
		return nil, fmt.Errorf("unknown variant %q for PageExpectation", p.Kind)
	}
}

// DomainExpectationKind names the tagged variants of DomainExpectation.
type DomainExpectationKind string

const (
	ValidResolvable    DomainExpectationKind = "ValidResolvable"
	ValidExpiryPeriod  DomainExpectationKind = "ValidExpiryPeriod"
)

// DomainExpectation is the closed sum type: ValidResolvable |
// ValidExpiryPeriod(days).
type DomainExpectation struct {
	Kind DomainExpectationKind
	Days uint64
}

func (d *DomainExpectation) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		if DomainExpectationKind(bare) != ValidResolvable {
			return fmt.Errorf("unknown variant %q for DomainExpectation (expected ValidResolvable as a bare string)", bare)
		}
		d.Kind = ValidResolvable
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("domain expectation must be a string or single-key object: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("domain expectation object must have exactly one key, got %d", len(obj))
	}
	for key, raw := range obj {
		if DomainExpectationKind(key) != ValidExpiryPeriod {
			return fmt.Errorf("unknown variant %q for DomainExpectation", key)
		}
		var v uint64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("ValidExpiryPeriod: %w", err)
		}
		*d = DomainExpectation{Kind: ValidExpiryPeriod, Days: v}
	}
	return nil
}

func (d DomainExpectation) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case ValidResolvable:
		return json.Marshal(string(ValidResolvable))
	case ValidExpiryPeriod:
		return json.Marshal(map[string]uint64{string(ValidExpiryPeriod): d.Days})
	default:
		return nil, fmt.Errorf("unknown variant %q for DomainExpectation", d.Kind)
	}
}

func (p PageExpectation) String() string {
	switch p.Kind {
	case ValidCode:
		return fmt.Sprintf("ValidCode(%d)", p.Code)
	case ValidContent:
		return fmt.Sprintf("ValidContent(%q)", p.Content)
	case ValidAddress:
		return fmt.Sprintf("ValidAddress(%q)", p.Address)
	case ValidLength:
		return fmt.Sprintf("ValidLength(%d)", p.Length)
	default:
		return string(p.Kind)
	}
}

func (d DomainExpectation) String() string {
	switch d.Kind {
	case ValidExpiryPeriod:
		return fmt.Sprintf("ValidExpiryPeriod(%d)", d.Days)
	default:
		return string(d.Kind)
	}
}

// normalizeMethod upper-cases and validates an HTTP method against the
// supported set; used by PageOptions parsing.
func normalizeMethod(m string) (string, error) {
	if m == "" {
		return "GET", nil
	}
	upper := strings.ToUpper(strings.TrimSpace(m))
	switch upper {
	case "GET", "POST", "PUT", "DELETE", "HEAD":
		return upper, nil
	default:
		return "", fmt.Errorf("unsupported method %q", m)
	}
}
