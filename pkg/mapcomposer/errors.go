package mapcomposer

import "errors"

var (
	// ErrConfiguration covers caller mistakes detected before anything is drawn:
	// too few colors, empty layers, a degenerate extent or an invalid scale config.
	ErrConfiguration = errors.New("invalid map configuration")
	// ErrBasemapUnavailable is returned when the tile backdrop cannot be fetched.
	ErrBasemapUnavailable = errors.New("basemap unavailable")
	// ErrReleased is returned when a map is encoded after its surface was released.
	ErrReleased = errors.New("drawing surface released")
)
