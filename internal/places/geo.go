package places

import "math"

const earthRadiusKm = 6371.0

// Haversine returns the great circle distance between two points in km.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Box is a lat/lng rectangle. West > East means it crosses the
// antimeridian.
type Box struct {
	South, West, North, East float64
}

func (b Box) CrossesAntimeridian() bool { return b.West > b.East }

// Spans splits b at the antimeridian into boxes whose West <= East.
func (b Box) Spans() []Box {
	if !b.CrossesAntimeridian() {
		return []Box{b}
	}
	return []Box{
		{South: b.South, West: b.West, North: b.North, East: 180},
		{South: b.South, West: -180, North: b.North, East: b.East},
	}
}

// BoundingBox returns the rectangle that contains the circle of radiusKm
// around (lat, lng). Latitude is clamped at the poles; longitude wraps
// around the antimeridian.
func BoundingBox(lat, lng, radiusKm float64) Box {
	dLat := radiusKm / earthRadiusKm * 180 / math.Pi
	cos := math.Cos(toRad(lat))
	dLng := 180.0
	if cos > 1e-9 {
		dLng = math.Min(180, dLat/cos)
	}
	box := Box{
		South: math.Max(-90, lat-dLat),
		North: math.Min(90, lat+dLat),
		West:  -180,
		East:  180,
	}
	if dLng < 180 {
		box.West = wrapLng(lng - dLng)
		box.East = wrapLng(lng + dLng)
	}
	return box
}

func wrapLng(lng float64) float64 {
	switch {
	case lng < -180:
		return lng + 360
	case lng > 180:
		return lng - 360
	}
	return lng
}

func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 &&
		!math.IsNaN(lat) && !math.IsNaN(lng)
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
