// Package ref encodes an (instance id, region) pair into the opaque
// token embedded in UI element values, so a later, detached interaction
// can recover its mutation target. Instance ids and region names never
// contain the delimiter, which makes the join reversible.
package ref

import (
	"fmt"
	"strings"
)

// Sep separates the token fields. Safe: provider instance ids match
// [a-z0-9-] and region names match [a-z0-9-].
const Sep = "|"

// Encode joins an instance id and its region into one token.
func Encode(instanceID, region string) string {
	return instanceID + Sep + region
}

// Decode splits a token back into (instanceID, region). Legacy tokens
// carry only an instance id; those decode with the supplied default
// region rather than failing.
func Decode(token, defaultRegion string) (instanceID, region string) {
	id, rest, ok := strings.Cut(token, Sep)
	if !ok || rest == "" {
		return id, defaultRegion
	}
	return id, rest
}

// DecodeAction parses the three-field form "action|id|region" used by
// overflow-menu values. The region falls back like Decode; a value
// missing the instance id is malformed.
func DecodeAction(value, defaultRegion string) (action, instanceID, region string, err error) {
	parts := strings.SplitN(value, Sep, 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("malformed action value %q", value)
	}
	action, instanceID = parts[0], parts[1]
	region = defaultRegion
	if len(parts) == 3 && parts[2] != "" {
		region = parts[2]
	}
	return action, instanceID, region, nil
}
