package remap_test

import (
	"fmt"
	"reflect"
	"strings"

	remap "github.com/SimonDaKappa/go-remap"
)

type Person struct {
	Name    string
	Surname string
	Age     int
}

type PersonDTO struct {
	Name     string
	LastName string `remap:"alias:'surname'"`
	Age      int
	Country  string `remap:"default:'IT'"`
}

func Example() {
	m := remap.New()
	if _, err := remap.Register[Person, PersonDTO](m); err != nil {
		panic(err)
	}

	dto, err := remap.Map[PersonDTO](m, Person{Name: "Pippo", Surname: "Paperino", Age: 30})
	if err != nil {
		panic(err)
	}
	fmt.Printf("%+v\n", dto)
	// Output: {Name:Pippo LastName:Paperino Age:30 Country:IT}
}

func ExampleFieldMapping_From() {
	m := remap.New()
	fm, err := remap.Register[Person, PersonDTO](m)
	if err != nil {
		panic(err)
	}

	// the custom pipeline replaces the discovered Name -> Name one
	_, err = fm.From("Name").
		Transform(func(v any) (any, error) { return strings.ToUpper(v.(string)), nil }).
		To("Name").
		Create()
	if err != nil {
		panic(err)
	}
	fm.Ignore("age")

	dto, err := remap.Map[PersonDTO](m, Person{Name: "Pippo", Surname: "Paperino", Age: 30})
	if err != nil {
		panic(err)
	}
	fmt.Printf("%+v\n", dto)
	// Output: {Name:PIPPO LastName:Paperino Age:0 Country:IT}
}

type Level int

const (
	Low Level = iota
	High
	Critical
)

func (l Level) String() string {
	return [...]string{"Low", "High", "Critical"}[l]
}

type Priority string

const (
	PriorityLow     Priority = "Low"
	PriorityHigh    Priority = "High"
	PriorityUnknown Priority = "Unknown"
)

func ExampleRegisterEnum() {
	m := remap.New(remap.WithEnum(Low, High, Critical))
	remap.DefineEnum(m, PriorityLow, PriorityHigh, PriorityUnknown)

	em, err := remap.RegisterEnum[Level, Priority](m)
	if err != nil {
		panic(err)
	}
	em.SetDefault(PriorityUnknown)

	for _, l := range []Level{Low, High, Critical} {
		p, err := remap.Map[Priority](m, l)
		if err != nil {
			panic(err)
		}
		fmt.Println(l, "->", p)
	}
	// Output:
	// Low -> Low
	// High -> High
	// Critical -> Unknown
}

func ExampleRegisterJSON() {
	m := remap.New()
	if _, err := remap.RegisterJSON[PersonDTO](m); err != nil {
		panic(err)
	}

	dto, err := remap.Map[PersonDTO](m, remap.JSON(`{"Name": "Pippo", "surname": "Paperino", "Age": 30}`))
	if err != nil {
		panic(err)
	}
	fmt.Printf("%+v\n", dto)
	// Output: {Name:Pippo LastName:Paperino Age:30 Country:IT}
}

func ExampleRegisterFunc() {
	m := remap.New()
	_, err := remap.RegisterFunc(m, func(p Person) (string, error) {
		return p.Name + " " + p.Surname, nil
	})
	if err != nil {
		panic(err)
	}

	names, err := remap.MapSlice[string](m, []Person{{Name: "Pippo", Surname: "Paperino"}, {Name: "Paolino", Surname: "Paperino"}})
	if err != nil {
		panic(err)
	}
	fmt.Println(strings.Join(names, ", "))
	// Output: Pippo Paperino, Paolino Paperino
}

func ExampleMapper_Apply() {
	m := remap.New(
		remap.WithType("Person", reflect.TypeFor[Person]()),
		remap.WithType("PersonDTO", reflect.TypeFor[PersonDTO]()),
	)

	mf, err := remap.ParseMappingFile([]byte(`
strategy: never
mappings:
  - source: Person
    dest: PersonDTO
    ignore: [surname]
`))
	if err != nil {
		panic(err)
	}
	if err := m.Apply(mf); err != nil {
		panic(err)
	}

	dto, err := remap.Map[PersonDTO](m, Person{Name: "Pippo", Surname: "Paperino", Age: 30})
	if err != nil {
		panic(err)
	}
	fmt.Printf("%+v\n", dto)
	// Output: {Name:Pippo LastName: Age:30 Country:}
}
