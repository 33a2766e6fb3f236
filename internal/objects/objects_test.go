package objects

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func mustUnit(t testing.TB, id uint32, name string) Unit {
	t.Helper()
	b := NewUnitBuilder()
	b.SetId(id)
	b.SetName(name)
	u, err := b.Build()
	require.NoError(t, err)
	return u
}

func TestBuilderRequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		setName bool
		setId   bool
		missing string
	}{
		{name: "nothing set", missing: "name"},
		{name: "only id", setId: true, missing: "name"},
		{name: "only name", setName: true, missing: "id"},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			builders := []Builder[any]{
				erase[Unit](NewUnitBuilder()),
				erase[Person](NewPersonBuilder()),
			}
			for _, b := range builders {
				if test.setName {
					b.SetName("Rysi")
				}
				if test.setId {
					b.SetId(7)
				}
				_, err := b.Build()
				require.ErrorIs(t, err, ErrMissingRequiredField)
				require.ErrorContains(t, err, test.missing)
			}
		})
	}
}

// erased adapts a Builder[T] to Builder[any] so both builders can share a table.
type erased[T any] struct {
	Builder[T]
}

func (e erased[T]) Build() (any, error) {
	return e.Builder.Build()
}

func erase[T any](b Builder[T]) Builder[any] {
	return erased[T]{Builder: b}
}

func TestBuilderOptionalFieldsStayUnset(t *testing.T) {
	u := mustUnit(t, 42, "Rysi")
	require.Equal(t, Unit{Id: 42, Name: "Rysi"}, u)

	b := NewPersonBuilder()
	b.SetId(3)
	b.SetName("Ján Novák")
	p, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, Person{Id: 3, Name: "Ján Novák"}, p)
}

func TestBuilderOptionalFields(t *testing.T) {
	b := NewPersonBuilder()
	b.SetId(3)
	b.SetName("Ján Novák")
	b.SetGender(GenderFemale)
	b.SetNickname("Veverička")
	b.SetVolunteer(true)
	p, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, GenderFemale, *p.Gender)
	require.Equal(t, "Veverička", *p.Nickname)
	require.True(t, *p.Volunteer)
	require.Nil(t, p.Ztp)
	require.Nil(t, p.BirthDate)

	ub := NewUnitBuilder()
	ub.SetId(10)
	ub.SetName("Oddiel Orol")
	ub.SetType(UnitOddiel)
	ub.SetNumber(12)
	ub.SetParent(UnitRef{Id: 1, Name: "Zbor"})
	u, err := ub.Build()
	require.NoError(t, err)
	require.Equal(t, UnitOddiel, *u.Type)
	require.Equal(t, uint32(12), *u.Number)
	require.Equal(t, &UnitRef{Id: 1, Name: "Zbor"}, u.Parent)
	require.Nil(t, u.SupplementaryName)
}

func TestBuilderSingleUse(t *testing.T) {
	b := NewUnitBuilder()
	b.SetId(1)
	b.SetName("Rysi")
	_, err := b.Build()
	require.NoError(t, err)

	_, err = b.Build()
	require.ErrorIs(t, err, ErrBuilderConsumed)
}

func TestAppendChildrenAtomic(t *testing.T) {
	root := mustUnit(t, 1, "Zbor")
	ok := mustUnit(t, 2, "Rysi")
	cyclic := mustUnit(t, 3, "Orly")
	require.NoError(t, cyclic.AppendChildren(mustUnit(t, 1, "Zbor")))

	err := root.AppendChildren(ok, cyclic)
	require.True(t, errors.Is(err, ErrCycle))
	require.Empty(t, root.Children)

	require.NoError(t, root.AppendChildren(ok))
	require.Len(t, root.Children, 1)
}

func TestUnitTree(t *testing.T) {
	root := mustUnit(t, 1, "Zbor")
	oddiel := mustUnit(t, 2, "Oddiel")
	oddiel.AppendPersons(Person{Id: 100, Name: "A"}, Person{Id: 101, Name: "B"})
	require.NoError(t, oddiel.AppendChildren(mustUnit(t, 3, "Rysi"), mustUnit(t, 4, "Líšky")))
	require.NoError(t, root.AppendChildren(oddiel, mustUnit(t, 5, "Klub")))
	root.Children[0].Children[0].AppendPersons(Person{Id: 102, Name: "C"})

	require.Equal(t, 5, root.CountUnits())
	require.Equal(t, 3, root.CountPersons())

	found := root.Find(4)
	require.NotNil(t, found)
	require.Equal(t, "Líšky", found.Name)
	require.Nil(t, root.Find(99))

	type visit struct {
		Depth int
		Id    uint32
	}
	var visits []visit
	err := root.Walk(func(depth int, u *Unit) error {
		visits = append(visits, visit{Depth: depth, Id: u.Id})
		return nil
	})
	require.NoError(t, err)

	expected := []visit{{0, 1}, {1, 2}, {2, 3}, {2, 4}, {1, 5}}
	if diff := cmp.Diff(expected, visits); diff != "" {
		t.Fatalf("walk order (-want +got):\n%s", diff)
	}

	stop := errors.New("stop")
	count := 0
	err = root.Walk(func(depth int, u *Unit) error {
		count++
		if u.Id == 3 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 3, count)
}

func TestUnitType(t *testing.T) {
	for _, unitType := range []UnitType{UnitDruzina, UnitOddiel, UnitZbor, UnitOblast, UnitRada} {
		parsed, err := ParseUnitType(unitType.String())
		require.NoError(t, err)
		require.Equal(t, unitType, parsed)
	}
	parsed, err := ParseUnitType(" Zbor ")
	require.NoError(t, err)
	require.Equal(t, UnitZbor, parsed)

	_, err = ParseUnitType("klub")
	require.Error(t, err)
	require.Equal(t, "UnitType(9)", UnitType(9).String())
}
