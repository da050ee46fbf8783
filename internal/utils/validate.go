package utils

import (
	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance.  Beyond the built-in tags
// it registers the two domain rules the registration flow needs:
//
//	phone  – 11-digit phone number
//	idcard – 18-character resident ID card number with valid checksum
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", validPhone)
	_ = v.RegisterValidation("idcard", validIDCard)
	return v
}

func validPhone(fl validator.FieldLevel) bool {
	return PhoneValid(fl.Field().String())
}

func validIDCard(fl validator.FieldLevel) bool {
	return IDCardValid(fl.Field().String())
}

// PhoneValid reports whether s is an 11-digit phone number.
func PhoneValid(s string) bool {
	if len(s) != 11 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ID card checksum per GB 11643: the 18th character is a check digit
// computed from the first 17 by weighted sum mod 11.
var (
	idCardWeights = [17]int{7, 9, 10, 5, 8, 4, 2, 1, 6, 3, 7, 9, 10, 5, 8, 4, 2}
	idCardCheck   = [11]byte{'1', '0', 'X', '9', '8', '7', '6', '5', '4', '3', '2'}
)

// IDCardValid reports whether s is a structurally valid 18-character
// resident ID card number (17 digits plus a checksum digit, which may
// be an uppercase X).
func IDCardValid(s string) bool {
	if len(s) != 18 {
		return false
	}
	sum := 0
	for i := 0; i < 17; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		sum += int(s[i]-'0') * idCardWeights[i]
	}
	return s[17] == idCardCheck[sum%11]
}
