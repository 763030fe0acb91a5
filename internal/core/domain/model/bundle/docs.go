// Package bundle contains the Bundle aggregate: same-store groups of orders
// dispatched to a single driver as one sequenced delivery route.
package bundle
