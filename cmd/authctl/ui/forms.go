package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/redmonkez12/signup-api/internal/auth"
)

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// SignupForm prompts for every signup field that is still empty in req.
func SignupForm(req *auth.SignupRequest) error {
	var fields []huh.Field

	if req.FirstName == "" {
		fields = append(fields, huh.NewInput().Title("First name").Value(&req.FirstName).Validate(required("first name")))
	}
	if req.LastName == "" {
		fields = append(fields, huh.NewInput().Title("Last name").Value(&req.LastName).Validate(required("last name")))
	}
	if req.Username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Description("3-30 letters, digits, '.', '_' or '-'").
			Value(&req.Username).
			Validate(required("username")))
	}
	if req.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&req.Email).
			Validate(func(s string) error {
				if !auth.IsEmail(strings.TrimSpace(s)) {
					return fmt.Errorf("enter a valid email address")
				}
				return nil
			}))
	}
	if req.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			Description("At least 8 characters").
			EchoMode(huh.EchoModePassword).
			Value(&req.Password).
			Validate(required("password")))
	}

	return run(fields)
}

// LoginForm prompts for the identifier and password when they are empty.
func LoginForm(emailOrUsername, password *string) error {
	var fields []huh.Field

	if *emailOrUsername == "" {
		fields = append(fields, huh.NewInput().
			Title("Email or username").
			Value(emailOrUsername).
			Validate(required("email or username")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(required("password")))
	}

	return run(fields)
}

// EmailForm prompts for an email address when it is empty.
func EmailForm(email *string) error {
	if *email != "" {
		return nil
	}
	return run([]huh.Field{
		huh.NewInput().Title("Email").Value(email).Validate(required("email")),
	})
}

func run(fields []huh.Field) error {
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeCatppuccin()).Run()
}
