package generators

import (
	"math/rand/v2"

	"grocery/internal/core/domain/model/kernel"
)

// metroCenter anchors generated locations to a Bay Area city center.
// Weights skew store placement toward the larger markets.
type metroCenter struct {
	city   string
	lat    float64
	lon    float64
	weight float64
}

var metroCenters = []metroCenter{
	{city: "San Francisco", lat: 37.7749, lon: -122.4194, weight: 0.30},
	{city: "Oakland", lat: 37.8044, lon: -122.2712, weight: 0.20},
	{city: "San Jose", lat: 37.3382, lon: -121.8863, weight: 0.25},
	{city: "Berkeley", lat: 37.8716, lon: -122.2727, weight: 0.10},
	{city: "Palo Alto", lat: 37.4419, lon: -122.1430, weight: 0.15},
}

// randomMetro picks a metro uniformly, for populations that spread evenly.
func randomMetro(rnd *rand.Rand) metroCenter {
	return metroCenters[rnd.IntN(len(metroCenters))]
}

// weightedMetro picks a metro by market weight, for commercial placement.
func weightedMetro(rnd *rand.Rand) metroCenter {
	weights := make([]float64, len(metroCenters))
	for i, m := range metroCenters {
		weights[i] = m.weight
	}
	return metroCenters[weightedIndex(rnd, weights)]
}

// scatterAround returns a point within +-spread degrees of the metro center.
func scatterAround(rnd *rand.Rand, metro metroCenter, spread float64) (kernel.GeoPoint, error) {
	lat := metro.lat + (rnd.Float64()*2-1)*spread
	lon := metro.lon + (rnd.Float64()*2-1)*spread
	return kernel.NewGeoPoint(lat, lon)
}
