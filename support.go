// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package dynlib

import "github.com/DataDog/go-dynlib/internal/support"

// SupportsTarget returns true and a nil error when the target operating
// system and architecture have a platform loader. Otherwise it returns false
// and an error matching errors.UnsupportedTargetError or
// errors.ManuallyDisabledError explaining why.
func SupportsTarget() (bool, error) {
	if err := support.Usable(); err != nil {
		return false, err
	}
	return true, nil
}
