package util

import (
	"regexp"
)

var snowflakeRegex = regexp.MustCompile(`^[0-9]{1,20}$`)

// IsSnowflake reports whether s looks like a platform ID: an unsigned
// decimal of at most 20 digits.
func IsSnowflake(s string) bool {
	return snowflakeRegex.MatchString(s)
}
