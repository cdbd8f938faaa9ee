// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

// KeratometricIndex relates corneal power in diopters to radius of curvature
// in millimeters: radius = KeratometricIndex / K.
const KeratometricIndex = 337.5

// RadiusStep is the sampling step (mm) used for fitting and profile grids.
const RadiusStep = 0.1
