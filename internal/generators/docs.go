// Package generators produces the simulation's fake data: customers,
// drivers, stores and orders. Each generator draws from a caller-supplied
// random source so seeded tests are deterministic, and persists through the
// unit of work like every other writer.
//
// Usage example:
//
//	rnd := rand.New(rand.NewPCG(seed1, seed2))
//	gen := generators.NewCustomerGenerator(uowFactory, rnd)
//	c, err := gen.Generate(ctx)
package generators
