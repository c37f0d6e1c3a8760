package lint

import (
	"errors"
	"regexp"
)

var (
	typeNameRegex  = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)
	fieldNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*(-[a-zA-Z0-9]+)*$`)
)

// CheckTypeName checks the recommended type and collection name syntax: lower-case words joined with '-'.
func CheckTypeName(name string) error {
	if name == "" {
		return errors.New("empty name")
	}
	if !typeNameRegex.MatchString(name) {
		return errors.New("name should be lower-case words separated by '-'")
	}
	return nil
}

// CheckFieldName checks the recommended field key syntax: alphanumeric words joined with '-'.
func CheckFieldName(name string) error {
	if name == "" {
		return errors.New("empty field name")
	}
	if !fieldNameRegex.MatchString(name) {
		return errors.New("field name should be alphanumeric words separated by '-'")
	}
	return nil
}
