/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"fmt"
	"strings"
)

// isBlank reports whether a value is nil, an empty string, or a string
// of only whitespace -- the set/blank defaults gate on this.
func isBlank(v interface{}) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(vv) == ""
	default:
		return false
	}
}

// isNil reports whether a value is nil -- the set/nil defaults gate on
// this.
func isNil(v interface{}) bool {
	return v == nil
}

// stringValue renders a record value as the string comparands a
// scan_row's constants are compared against. Absent values render as
// "".
func stringValue(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case fmt.Stringer:
		return vv.String()
	default:
		return fmt.Sprint(v)
	}
}
