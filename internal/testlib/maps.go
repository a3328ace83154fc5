// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package testlib

import (
	"bufio"
	"bytes"
	"strings"
)

// containsLine reports whether one of the /proc/self/maps entries maps path.
func containsLine(maps []byte, path string) bool {
	scanner := bufio.NewScanner(bytes.NewReader(maps))
	for scanner.Scan() {
		if strings.HasSuffix(strings.TrimSpace(scanner.Text()), " "+path) {
			return true
		}
	}
	return false
}
