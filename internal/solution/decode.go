// Package solution decodes solver instance documents and adapts them into
// entity graphs.
//
// The decoder understands the Alloy instance XML format:
//
//	<alloy>
//	  <instance>
//	    <sig label="this/Account" ID="4" parentID="2">
//	      <field label="id"/>
//	      <field label="balance"/>
//	    </sig>
//	    <field label="owner" ID="9" parentID="4"/>
//	    <fact label="this/Association_Account_Customer"/>
//	  </instance>
//	</alloy>
//
// Fields nested in a sig, and top-level fields whose parentID names a sig,
// both become attributes of that sig in document order.
package solution

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
)

// Solution is one decoded solver instance
type Solution struct {
	Source  string
	Classes []ClassDescriptor
	Facts   []AssociationFact
}

// ClassDescriptor is a sig with its ordered field labels
type ClassDescriptor struct {
	Name    string
	Fields  []string
	Builtin bool // marked builtin="yes" by the solver
}

// AssociationFact is a labeled relation between two classes
type AssociationFact struct {
	Label string
}

// ParseError reports a structurally invalid solver document
type ParseError struct {
	Source  string
	Element string // sig, field, fact or document
	Offset  int64
	Err     error
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("parse %s: %s at offset %d: %v", e.Source, e.Element, e.Offset, e.Err)
	}
	return fmt.Sprintf("parse: %s at offset %d: %v", e.Element, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type elementKind int

const (
	kindSig elementKind = iota
	kindField
	kindFact
)

func (k elementKind) String() string {
	switch k {
	case kindSig:
		return "sig"
	case kindField:
		return "field"
	default:
		return "fact"
	}
}

// element is one decoded sig, field or fact
type element struct {
	kind     elementKind
	label    string
	id       string
	parentID string
	builtin  bool
	offset   int64
	fields   []string
}

var (
	errMissingLabel  = errors.New("missing label attribute")
	errUnknownRoot   = errors.New("root element must be <alloy> or <instance>")
	errEmptyDocument = errors.New("document has no root element")
	errDanglingField = errors.New("parentID does not name a sig")
)

// DecodeFile decodes the solver document at path
func DecodeFile(path string) (*Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open solution: %w", err)
	}
	defer func() { _ = f.Close() }()

	sol, err := Decode(f)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Source = path
		}
		return nil, err
	}
	sol.Source = path
	return sol, nil
}

// Decode reads a solver document
func Decode(r io.Reader) (*Solution, error) {
	elems, err := scan(xml.NewDecoder(r))
	if err != nil {
		return nil, err
	}

	sol := &Solution{}
	sigs := make(map[string]int)
	for _, el := range elems {
		switch el.kind {
		case kindSig:
			if el.id != "" {
				sigs[el.id] = len(sol.Classes)
			}
			sol.Classes = append(sol.Classes, ClassDescriptor{Name: el.label, Fields: el.fields, Builtin: el.builtin})
		case kindFact:
			sol.Facts = append(sol.Facts, AssociationFact{Label: el.label})
		}
	}

	// top-level fields refer to their sig by ID
	for _, el := range elems {
		if el.kind != kindField {
			continue
		}
		idx, ok := sigs[el.parentID]
		if !ok {
			return nil, &ParseError{Element: el.kind.String(), Offset: el.offset, Err: fmt.Errorf("%w: %q", errDanglingField, el.parentID)}
		}
		sol.Classes[idx].Fields = append(sol.Classes[idx].Fields, el.label)
	}

	return sol, nil
}

func scan(d *xml.Decoder) ([]element, error) {
	var (
		elems []element
		depth int
		root  bool
		sig   = -1 // index into elems of the enclosing sig
		sigAt int  // depth of that sig
	)

	for {
		offset := d.InputOffset()
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Element: "document", Offset: offset, Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if !root {
				if t.Name.Local != "alloy" && t.Name.Local != "instance" {
					return nil, &ParseError{Element: "document", Offset: offset, Err: errUnknownRoot}
				}
				root = true
				continue
			}

			var kind elementKind
			switch t.Name.Local {
			case "sig":
				kind = kindSig
			case "field":
				kind = kindField
			case "fact":
				kind = kindFact
			default:
				continue
			}

			el := element{kind: kind, offset: offset}
			for _, attr := range t.Attr {
				switch attr.Name.Local {
				case "label":
					el.label = attr.Value
				case "ID":
					el.id = attr.Value
				case "parentID":
					el.parentID = attr.Value
				case "builtin":
					el.builtin = attr.Value == "yes"
				}
			}
			if el.label == "" {
				return nil, &ParseError{Element: kind.String(), Offset: offset, Err: errMissingLabel}
			}

			if kind == kindField && sig >= 0 {
				elems[sig].fields = append(elems[sig].fields, el.label)
				continue
			}
			elems = append(elems, el)
			if kind == kindSig && sig < 0 {
				sig, sigAt = len(elems)-1, depth
			}

		case xml.EndElement:
			if sig >= 0 && depth == sigAt {
				sig = -1
			}
			depth--
		}
	}

	if !root {
		return nil, &ParseError{Element: "document", Err: errEmptyDocument}
	}
	return elems, nil
}
