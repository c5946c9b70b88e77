package geo

import "math"

// MaxLat is the latitude limit of the square Web-Mercator world.
const MaxLat = 85.05112878

// Mercator projects WGS84 Lon/Lat onto the unit Web-Mercator square.
//
// x grows east from 0 at -180 to 1 at 180; y grows south from 0 at MaxLat
// to 1 at -MaxLat, matching image and XYZ tile orientation.
func Mercator(lon, lat float64) (x, y float64) {
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	// lon: [-180..180] -> x: [0..1]
	x = (lon + 180.0) / 360.0

	// Forward Mercator projection, y: [PI..-PI] -> [0..1]
	latRad := lat * (math.Pi / 180.0)
	mercatorY := math.Log(math.Tan(math.Pi*0.25 + latRad*0.5))
	y = 0.5 - mercatorY/(2.0*math.Pi)

	return x, y
}
