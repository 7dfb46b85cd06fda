package casbin

import "fmt"

type UnknownPolicyTypeError struct {
	PolicyType string
}

func (err UnknownPolicyTypeError) Error() string {
	return fmt.Sprintf("unknown policy type %q", err.PolicyType)
}
