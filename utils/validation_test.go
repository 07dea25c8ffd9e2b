package utils

import (
	"strings"
	"testing"
)

func TestValidateNodeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "main.go", false},
		{"unicode", "π.md", false},
		{"path traversal", "../secret", true},
		{"dotfile", ".env", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"forward slash", "a/b.txt", true},
		{"backslash", "a\\b.txt", true},
		{"null byte", "a\x00b", true},
		{"too long", strings.Repeat("a", 256), true},
		{"max length", strings.Repeat("a", 255), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateNodeName(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRoomName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "sprint planning", false},
		{"empty", "", true},
		{"too long", strings.Repeat("r", 101), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoomName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateRoomName(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "dev@example.com", false},
		{"subdomain", "dev@mail.example.co.uk", false},
		{"empty", "", true},
		{"missing at", "devexample.com", true},
		{"missing tld", "dev@example", true},
		{"spaces", "dev @example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateEmail(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "hunter2222", false},
		{"minimum", "12345678", false},
		{"too short", "1234567", true},
		{"bcrypt limit", strings.Repeat("p", 72), false},
		{"over bcrypt limit", strings.Repeat("p", 73), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePassword(len %d) = %v, wantErr %v", len(tt.input), err, tt.wantErr)
			}
		})
	}
}
