package services

import (
	"errors"
	"fmt"
	"sort"

	"grocery/internal/core/domain/model/driver"
	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"
)

const (
	// DefaultMinBundleSize is the smallest bundle the dispatch engine forms.
	// Stores with fewer queued orders keep them waiting for the next cycle.
	DefaultMinBundleSize = 3
	// DefaultMaxBundleSize caps how many stops one driver takes per route.
	DefaultMaxBundleSize = 5
)

// ErrDriverNotFound is returned when no available driver exists for a formed
// bundle. The bundle is not created; its orders stay in the queue.
var ErrDriverNotFound = errors.New("no available driver found")

// Bundler is a domain service that groups queued same-store orders into
// delivery bundles by proximity, sequences each bundle's stops into a route,
// and selects the nearest available driver.
//
// Bundling rules:
//   - Orders never mix across stores
//   - Each bundle holds between min and max orders
//   - Orders cluster greedily around the oldest queued order, always pulling
//     the order nearest to the growing cluster's centroid
//   - When a store's trailing cluster cannot reach the minimum size, orders
//     are rebalanced out of the preceding clusters so no formed cluster
//     falls below the minimum; leftovers that still cannot reach it stay
//     queued for the next cycle
type Bundler struct {
	minSize int
	maxSize int
}

// NewBundler creates a Bundler with the given size bounds.
func NewBundler(minSize int, maxSize int) (Bundler, error) {
	if minSize <= 0 {
		return Bundler{}, fmt.Errorf("min bundle size must be positive, got %d", minSize)
	}
	if maxSize < minSize {
		return Bundler{}, fmt.Errorf("max bundle size %d is below min %d", maxSize, minSize)
	}
	return Bundler{minSize: minSize, maxSize: maxSize}, nil
}

// MinSize returns the smallest cluster the bundler forms.
func (b Bundler) MinSize() int { return b.minSize }

// MaxSize returns the largest cluster the bundler forms.
func (b Bundler) MaxSize() int { return b.maxSize }

// Cluster groups queued orders into proximity clusters per store. The input
// may span several stores; the result contains only clusters that satisfy
// the size bounds. Orders left over (store queues smaller than the minimum)
// are simply absent from the result and remain queued.
func (b Bundler) Cluster(orders []*order.Order) ([][]*order.Order, error) {
	byStore := make(map[kernel.UUID][]*order.Order)
	storeSeen := make([]kernel.UUID, 0)
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return nil, err
		}
		if _, ok := byStore[o.StoreID()]; !ok {
			storeSeen = append(storeSeen, o.StoreID())
		}
		byStore[o.StoreID()] = append(byStore[o.StoreID()], o)
	}

	var clusters [][]*order.Order
	for _, storeID := range storeSeen {
		storeClusters, err := b.clusterStore(byStore[storeID])
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, storeClusters...)
	}
	return clusters, nil
}

// clusterStore clusters one store's queue: greedy growth around the oldest
// order, then a rebalance pass for the trailing cluster.
func (b Bundler) clusterStore(orders []*order.Order) ([][]*order.Order, error) {
	if len(orders) < b.minSize {
		return nil, nil
	}

	remaining := make([]*order.Order, len(orders))
	copy(remaining, orders)
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].CreatedAt().Before(remaining[j].CreatedAt())
	})

	var clusters [][]*order.Order
	for len(remaining) > 0 {
		cluster := []*order.Order{remaining[0]}
		remaining = remaining[1:]

		for len(cluster) < b.maxSize && len(remaining) > 0 {
			centroid, err := b.Centroid(cluster)
			if err != nil {
				return nil, err
			}
			next, err := nearestOrderIndex(centroid, remaining)
			if err != nil {
				return nil, err
			}
			cluster = append(cluster, remaining[next])
			remaining = append(remaining[:next], remaining[next+1:]...)
		}

		clusters = append(clusters, cluster)
	}

	return b.rebalance(clusters), nil
}

// rebalance tops up an undersized trailing cluster by pulling the most
// recently added orders out of its predecessors, never shrinking a
// predecessor below the minimum. A trailing cluster that still cannot reach
// the minimum is dropped back to the queue.
func (b Bundler) rebalance(clusters [][]*order.Order) [][]*order.Order {
	if len(clusters) == 0 {
		return nil
	}

	last := len(clusters) - 1
	for donor := last - 1; donor >= 0 && len(clusters[last]) < b.minSize; donor-- {
		for len(clusters[donor]) > b.minSize && len(clusters[last]) < b.minSize {
			d := clusters[donor]
			moved := d[len(d)-1]
			clusters[donor] = d[:len(d)-1]
			clusters[last] = append(clusters[last], moved)
		}
	}

	if len(clusters[last]) < b.minSize {
		clusters = clusters[:last]
	}
	return clusters
}

// SequenceStops orders a cluster into the route the driver will drive:
// nearest unvisited neighbor, starting from the store. Distance ties break
// on the lexicographically smallest order ID so the route is deterministic.
func (b Bundler) SequenceStops(storeLocation kernel.GeoPoint, cluster []*order.Order) ([]*order.Order, error) {
	remaining := make([]*order.Order, len(cluster))
	copy(remaining, cluster)

	route := make([]*order.Order, 0, len(cluster))
	position := storeLocation
	for len(remaining) > 0 {
		next, err := nearestOrderIndex(position, remaining)
		if err != nil {
			return nil, err
		}
		route = append(route, remaining[next])
		position = remaining[next].DeliveryLocation()
		remaining = append(remaining[:next], remaining[next+1:]...)
	}
	return route, nil
}

// NearestDriver selects the available driver closest to the given point.
// Distance ties break on the lexicographically smallest driver ID. Returns
// ErrDriverNotFound when no driver is available.
func (b Bundler) NearestDriver(point kernel.GeoPoint, drivers []*driver.Driver) (*driver.Driver, error) {
	var best *driver.Driver
	bestDistance := 0.0

	for _, d := range drivers {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if !d.IsAvailable() {
			continue
		}

		distance, err := point.DistanceTo(d.Location())
		if err != nil {
			return nil, err
		}
		if best == nil || distance < bestDistance ||
			(distance == bestDistance && d.ID().String() < best.ID().String()) {
			best = d
			bestDistance = distance
		}
	}

	if best == nil {
		return nil, ErrDriverNotFound
	}
	return best, nil
}

// Centroid returns the mean delivery location of a cluster.
func (b Bundler) Centroid(cluster []*order.Order) (kernel.GeoPoint, error) {
	points := make([]kernel.GeoPoint, len(cluster))
	for i, o := range cluster {
		points[i] = o.DeliveryLocation()
	}
	return kernel.Centroid(points)
}

// nearestOrderIndex returns the index of the order whose delivery location
// is closest to the given point, breaking ties on the smaller order ID.
func nearestOrderIndex(point kernel.GeoPoint, orders []*order.Order) (int, error) {
	best := 0
	bestDistance, err := point.DistanceTo(orders[0].DeliveryLocation())
	if err != nil {
		return 0, err
	}
	for i := 1; i < len(orders); i++ {
		distance, err := point.DistanceTo(orders[i].DeliveryLocation())
		if err != nil {
			return 0, err
		}
		if distance < bestDistance ||
			(distance == bestDistance && orders[i].ID().String() < orders[best].ID().String()) {
			best = i
			bestDistance = distance
		}
	}
	return best, nil
}
