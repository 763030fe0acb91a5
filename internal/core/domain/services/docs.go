// Package services contains stateless domain services implementing business
// logic that spans multiple aggregates: proximity clustering of orders into
// bundles, route sequencing, driver selection and cancellation sampling.
package services
