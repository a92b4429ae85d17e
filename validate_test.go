package remap

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Email string
	Name  string
	Age   int
}

type signup struct {
	Email string `json:"email" validate:"required,email"`
	Name  string
	Age   int `validate:"gte=18"`
}

var errReserved = errors.New("reserved name")

type account struct {
	Name string
}

func (a *account) Validate() error {
	if a.Name == "root" {
		return errReserved
	}
	return nil
}

func TestValidation(t *testing.T) {
	valid := signupForm{Email: "pippo@example.com", Name: "Pippo", Age: 30}

	t.Run("Passes", func(t *testing.T) {
		m, _ := newTestMapper(WithValidation())
		_, err := Register[signupForm, signup](m)
		require.NoError(t, err)

		out, err := Map[signup](m, valid)
		require.NoError(t, err)
		assert.Equal(t, signup{Email: "pippo@example.com", Name: "Pippo", Age: 30}, out)
	})

	t.Run("TagFailure", func(t *testing.T) {
		m, _ := newTestMapper(WithValidation())
		_, err := Register[signupForm, signup](m)
		require.NoError(t, err)

		form := valid
		form.Age = 12
		_, err = Map[signup](m, form)
		assert.ErrorIs(t, err, ErrValidation)
		assert.ErrorIs(t, err, ErrMappingFailure)
		assert.ErrorContains(t, err, "failed on 'gte'")

		form = valid
		form.Email = "nope"
		_, err = Map[signup](m, form)
		assert.ErrorContains(t, err, "signup.email", "fields are reported by json name")
	})

	t.Run("FailureInvalidatesDestination", func(t *testing.T) {
		m, _ := newTestMapper(WithValidation())
		_, err := Register[signupForm, signup](m)
		require.NoError(t, err)

		form := valid
		form.Age = 1
		dest := signup{Name: "before"}
		_, err = m.MapInto(form, &dest)
		require.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, signup{}, dest)
	})

	t.Run("Validatable", func(t *testing.T) {
		m, _ := newTestMapper(WithValidation())
		_, err := Register[fromTest, account](m)
		require.NoError(t, err)

		out, err := Map[account](m, fromTest{Name: "pippo"})
		require.NoError(t, err)
		assert.Equal(t, "pippo", out.Name)

		_, err = Map[account](m, fromTest{Name: "root"})
		assert.ErrorIs(t, err, errReserved)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("DisabledByDefault", func(t *testing.T) {
		m, _ := newTestMapper()
		_, err := Register[signupForm, signup](m)
		require.NoError(t, err)

		out, err := Map[signup](m, signupForm{Age: 3})
		require.NoError(t, err)
		assert.Equal(t, 3, out.Age)
	})

	t.Run("JSONDocuments", func(t *testing.T) {
		m, _ := newTestMapper(WithValidation())
		_, err := RegisterJSON[signup](m)
		require.NoError(t, err)

		_, err = Map[signup](m, JSON(`{"email": "a@b.co", "Age": 17}`))
		assert.ErrorIs(t, err, ErrValidation)

		out, err := Map[signup](m, JSON(`{"email": "a@b.co", "Age": 18}`))
		require.NoError(t, err)
		assert.Equal(t, 18, out.Age)
	})
}

func TestInvalidate(t *testing.T) {
	type nested struct {
		Label string
		At    time.Time
	}
	type holder struct {
		Name   string
		Inner  nested
		Tags   []string
		hidden int
	}

	t.Run("ZeroesRecursively", func(t *testing.T) {
		h := holder{Name: "x", Inner: nested{Label: "y", At: time.Now()}, Tags: []string{"t"}, hidden: 4}
		require.NoError(t, Invalidate(&h))
		assert.Equal(t, holder{hidden: 4}, h, "unexported fields are left alone")
	})

	t.Run("RejectsNonPointers", func(t *testing.T) {
		assert.ErrorIs(t, Invalidate(holder{}), ErrInvalidMappingSpec)
		assert.ErrorIs(t, Invalidate((*holder)(nil)), ErrInvalidMappingSpec)
	})
}
