// File: pkg/utils/utils.go
package utils

import "strings"

// ParsePackageArg splits a package argument of the form 'name@constraint' into name and constraint.
// The leading '@' of a scoped name is not a separator, so '@scope/pkg' has no constraint.
func ParsePackageArg(arg string) (name, constraint string) {
	arg = strings.TrimSpace(arg)
	i := strings.LastIndex(arg, "@")
	if i <= 0 {
		return arg, ""
	}
	return arg[:i], arg[i+1:]
}
