package objects

import "fmt"

type Gender int

const (
	GenderMale Gender = iota
	GenderFemale
)

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	}
	return fmt.Sprintf("Gender(%d)", int(g))
}

// Person is a member registered in a unit. Optional fields are nil when the
// portal did not provide them.
type Person struct {
	Id        uint32  `json:"id"`
	Name      string  `json:"name"`
	Gender    *Gender `json:"gender,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"`
	Nickname  *string `json:"nickname,omitempty"`
	Volunteer *bool   `json:"volunteer,omitempty"`
	Ztp       *bool   `json:"ztp,omitempty"`
}

type PersonBuilder struct {
	required
	gender    *Gender
	birthDate *string
	nickname  *string
	volunteer *bool
	ztp       *bool
}

func NewPersonBuilder() *PersonBuilder {
	return &PersonBuilder{}
}

func (b *PersonBuilder) SetGender(gender Gender) {
	b.gender = &gender
}

func (b *PersonBuilder) SetBirthDate(birthDate string) {
	b.birthDate = &birthDate
}

func (b *PersonBuilder) SetNickname(nickname string) {
	b.nickname = &nickname
}

func (b *PersonBuilder) SetVolunteer(volunteer bool) {
	b.volunteer = &volunteer
}

func (b *PersonBuilder) SetZtp(ztp bool) {
	b.ztp = &ztp
}

func (b *PersonBuilder) Build() (Person, error) {
	name, id, err := b.take()
	if err != nil {
		return Person{}, fmt.Errorf("build person: %w", err)
	}
	return Person{
		Id:        id,
		Name:      name,
		Gender:    b.gender,
		BirthDate: b.birthDate,
		Nickname:  b.nickname,
		Volunteer: b.volunteer,
		Ztp:       b.ztp,
	}, nil
}
