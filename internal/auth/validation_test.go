package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupRequest_Validate(t *testing.T) {
	require.NoError(t, aliceSignup().Validate())

	tests := []struct {
		name      string
		mutate    func(r *SignupRequest)
		wantField string
	}{
		{"missing first name", func(r *SignupRequest) { r.FirstName = "" }, "firstName"},
		{"missing last name", func(r *SignupRequest) { r.LastName = "" }, "lastName"},
		{"blank first name", func(r *SignupRequest) { r.FirstName = "   " }, "firstName"},
		{"blank last name", func(r *SignupRequest) { r.LastName = "\t" }, "lastName"},
		{"blank username", func(r *SignupRequest) { r.Username = " \n " }, "username"},
		{"missing username", func(r *SignupRequest) { r.Username = "" }, "username"},
		{"short username", func(r *SignupRequest) { r.Username = "al" }, "username"},
		{"long username", func(r *SignupRequest) { r.Username = strings.Repeat("a", 31) }, "username"},
		{"username with space", func(r *SignupRequest) { r.Username = "alice smith" }, "username"},
		{"missing email", func(r *SignupRequest) { r.Email = "" }, "email"},
		{"bad email", func(r *SignupRequest) { r.Email = "alice@" }, "email"},
		{"single letter tld", func(r *SignupRequest) { r.Email = "bob@x.c" }, "email"},
		{"trailing dot", func(r *SignupRequest) { r.Email = "bob@x.com." }, "email"},
		{"non-ascii domain", func(r *SignupRequest) { r.Email = "bob@мир.рф" }, "email"},
		{"missing password", func(r *SignupRequest) { r.Password = "" }, "password"},
		{"short password", func(r *SignupRequest) { r.Password = "short" }, "password"},
		{"long password", func(r *SignupRequest) { r.Password = strings.Repeat("p", 73) }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := aliceSignup()
			tt.mutate(&req)

			err := req.Validate()

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
			assert.True(t, strings.HasPrefix(validationErr.Message, `"`+tt.wantField+`"`), validationErr.Message)
		})
	}
}

func TestSignupRequest_Trimmed(t *testing.T) {
	req := SignupRequest{FirstName: " Alice ", LastName: "\tLiddell", Username: " alice", Email: "A@X.com ", Password: " secret123 "}

	got := req.Trimmed()
	assert.Equal(t, SignupRequest{FirstName: "Alice", LastName: "Liddell", Username: "alice", Email: "A@X.com", Password: " secret123 "}, got)
	assert.NoError(t, req.Validate())
}

func TestSignupRequest_Validate_ReportsFirstField(t *testing.T) {
	err := SignupRequest{}.Validate()

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "firstName", validationErr.Field)
	assert.Equal(t, `"firstName" cannot be blank`, validationErr.Message)
}

func TestIsEmail(t *testing.T) {
	for _, s := range []string{"a@x.com", "A@X.COM", "first.last@sub.example.org", `"odd name"@x.com`, "a@[127.0.0.1]"} {
		assert.True(t, IsEmail(s), s)
	}
	for _, s := range []string{"alice", "a@x", "a@@x.com", "a b@x.com", "a@x.c", ".a@x.com", ""} {
		assert.False(t, IsEmail(s), s)
	}
}
