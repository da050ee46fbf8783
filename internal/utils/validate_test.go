package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneValid(t *testing.T) {
	assert.True(t, PhoneValid("13812345678"))
	assert.False(t, PhoneValid("1381234567"))   // too short
	assert.False(t, PhoneValid("138123456789")) // too long
	assert.False(t, PhoneValid("1381234567a"))
	assert.False(t, PhoneValid(""))
}

func TestIDCardValid(t *testing.T) {
	// Checksum of the first 17 digits yields X.
	assert.True(t, IDCardValid("11010519491231002X"))

	assert.False(t, IDCardValid("110105194912310021")) // wrong check digit
	assert.False(t, IDCardValid("11010519491231002x")) // lowercase x rejected
	assert.False(t, IDCardValid("11010519491231002"))  // 17 chars
	assert.False(t, IDCardValid("1101051949123100200"))
	assert.False(t, IDCardValid("1101051949123100aX"))
	assert.False(t, IDCardValid(""))
}

func TestValidateStructTags(t *testing.T) {
	type form struct {
		Phone  string `validate:"required,phone"`
		IDCard string `validate:"required,idcard"`
	}

	assert.NoError(t, Validate.Struct(form{Phone: "13812345678", IDCard: "11010519491231002X"}))
	assert.Error(t, Validate.Struct(form{Phone: "bad", IDCard: "11010519491231002X"}))
	assert.Error(t, Validate.Struct(form{Phone: "13812345678", IDCard: "bad"}))
}
