// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import "errors"

// Error kinds surfaced by the engine and service. Callers match them with
// errors.Is; wrapping adds context only.
var (
	// ErrNotFound is returned when a referenced content or memory id does not exist
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the caller does not own the resource
	ErrUnauthorized = errors.New("not authorized")
	// ErrInvalidInput is returned for requests with no usable fields
	ErrInvalidInput = errors.New("invalid input")
)
