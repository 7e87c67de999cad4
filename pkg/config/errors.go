package config

import "errors"

// ErrConfigNotFound wraps a failure to read service.yaml for any
// reason other than the file being absent (e.g. a permission error);
// Initialize reports it as a load failure. An absent service.yaml is
// not an error: Initialize then uses the built-in defaults.
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidYAML is returned when service.yaml fails to parse.
var ErrInvalidYAML = errors.New("invalid yaml")
