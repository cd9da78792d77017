// Package utils converts loosely typed connector configuration values.
package utils
