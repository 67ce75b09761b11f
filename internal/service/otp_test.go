package service

import "testing"

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6-digit code, got %q", code)
		}
		for _, ch := range code {
			if ch < '0' || ch > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
		if code[0] == '0' {
			t.Fatalf("code %q outside [100000, 999999]", code)
		}
	}
}
