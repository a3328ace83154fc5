// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package support

import "errors"

// Store all the errors related to why dynamic loading is unavailable for the
// current target. Filled by init functions selected with build tags.
var supportErrors []error

// Not nil if the build tag `dynlib.disabled` is set
var manuallyDisabledErr error

// Errors returns all the errors related to why dynamic loading is unavailable
// for the current target, joined together. Nil means the target is supported.
func Errors() error {
	return errors.Join(supportErrors...)
}

// ManuallyDisabledError returns an error if the build tag `dynlib.disabled` is set
func ManuallyDisabledError() error {
	return manuallyDisabledErr
}

// Usable returns nil when dynamic loading can be used on this build.
func Usable() error {
	if manuallyDisabledErr != nil {
		return manuallyDisabledErr
	}
	return Errors()
}
