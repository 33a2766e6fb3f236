package objects

import (
	"fmt"
	"strings"
)

type UnitType int

const (
	UnitDruzina UnitType = iota
	UnitOddiel
	UnitZbor
	UnitOblast
	UnitRada
)

var unitTypeNames = []string{
	UnitDruzina: "druzina",
	UnitOddiel:  "oddiel",
	UnitZbor:    "zbor",
	UnitOblast:  "oblast",
	UnitRada:    "rada",
}

func (t UnitType) String() string {
	if int(t) < 0 || int(t) >= len(unitTypeNames) {
		return fmt.Sprintf("UnitType(%d)", int(t))
	}
	return unitTypeNames[t]
}

// ParseUnitType is the inverse of UnitType.String, it ignores case.
func ParseUnitType(s string) (UnitType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range unitTypeNames {
		if name == s {
			return UnitType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown unit type %q", s)
}

// UnitRef names a unit without owning it, it is only used to give a unit
// some context about where it was found.
type UnitRef struct {
	Id   uint32 `json:"id"`
	Name string `json:"name"`
}

// Unit is a node of the organisational tree. A unit exclusively owns its
// children and persons.
type Unit struct {
	Id                uint32    `json:"id"`
	Name              string    `json:"name"`
	SupplementaryName *string   `json:"supplementary_name,omitempty"`
	Type              *UnitType `json:"type,omitempty"`
	Number            *uint32   `json:"number,omitempty"`
	Parent            *UnitRef  `json:"parent,omitempty"`
	Children          []Unit    `json:"children,omitempty"`
	Persons           []Person  `json:"persons,omitempty"`
}

func (u *Unit) Ref() UnitRef {
	return UnitRef{Id: u.Id, Name: u.Name}
}

func (u *Unit) contains(id uint32) bool {
	if u.Id == id {
		return true
	}
	for i := range u.Children {
		if u.Children[i].contains(id) {
			return true
		}
	}
	return false
}

// AppendChildren appends all of children or, if any of them (or anything
// beneath them) is u itself, none of them.
func (u *Unit) AppendChildren(children ...Unit) error {
	for i := range children {
		if children[i].contains(u.Id) {
			return fmt.Errorf(
				"%w: %d (%s) under %d (%s)",
				ErrCycle,
				children[i].Id, children[i].Name,
				u.Id, u.Name,
			)
		}
	}
	u.Children = append(u.Children, children...)
	return nil
}

func (u *Unit) AppendPersons(persons ...Person) {
	u.Persons = append(u.Persons, persons...)
}

// Walk visits u and everything beneath it depth first, parents before their
// children. Returning an error from fn stops the walk.
func (u *Unit) Walk(fn func(depth int, unit *Unit) error) error {
	return u.walk(0, fn)
}

func (u *Unit) walk(depth int, fn func(depth int, unit *Unit) error) error {
	err := fn(depth, u)
	if err != nil {
		return err
	}
	for i := range u.Children {
		err = u.Children[i].walk(depth+1, fn)
		if err != nil {
			return err
		}
	}
	return nil
}

// Find returns the unit with the given id in u's subtree, or nil.
func (u *Unit) Find(id uint32) *Unit {
	if u.Id == id {
		return u
	}
	for i := range u.Children {
		found := u.Children[i].Find(id)
		if found != nil {
			return found
		}
	}
	return nil
}

func (u *Unit) CountUnits() int {
	n := 1
	for i := range u.Children {
		n += u.Children[i].CountUnits()
	}
	return n
}

func (u *Unit) CountPersons() int {
	n := len(u.Persons)
	for i := range u.Children {
		n += u.Children[i].CountPersons()
	}
	return n
}

func (u Unit) String() string {
	if u.SupplementaryName != nil && *u.SupplementaryName != "" {
		return fmt.Sprintf("%s (%s) [%d]", u.Name, *u.SupplementaryName, u.Id)
	}
	return fmt.Sprintf("%s [%d]", u.Name, u.Id)
}

type UnitBuilder struct {
	required
	supplementaryName *string
	unitType          *UnitType
	number            *uint32
	parent            *UnitRef
}

func NewUnitBuilder() *UnitBuilder {
	return &UnitBuilder{}
}

func (b *UnitBuilder) SetSupplementaryName(name string) {
	b.supplementaryName = &name
}

func (b *UnitBuilder) SetType(unitType UnitType) {
	b.unitType = &unitType
}

func (b *UnitBuilder) SetNumber(number uint32) {
	b.number = &number
}

func (b *UnitBuilder) SetParent(parent UnitRef) {
	b.parent = &parent
}

func (b *UnitBuilder) Build() (Unit, error) {
	name, id, err := b.take()
	if err != nil {
		return Unit{}, fmt.Errorf("build unit: %w", err)
	}
	return Unit{
		Id:                id,
		Name:              name,
		SupplementaryName: b.supplementaryName,
		Type:              b.unitType,
		Number:            b.number,
		Parent:            b.parent,
	}, nil
}
