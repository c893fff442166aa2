package accounts

import "testing"

func TestValidateCode(t *testing.T) {
	valid := []string{"51", "26.01", "01", "1.2.3"}
	for _, code := range valid {
		if err := ValidateCode(code); err != nil {
			t.Fatalf("%q should be valid: %v", code, err)
		}
	}
	invalid := []string{"", "5A", "51.", ".51", "51..2", "12345678901234567"}
	for _, code := range invalid {
		if err := ValidateCode(code); err == nil {
			t.Fatalf("%q should be rejected", code)
		}
	}
}
