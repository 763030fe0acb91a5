// Package driver contains the Driver aggregate: the delivery drivers of the
// marketplace, their positions and their bundle assignments.
package driver
