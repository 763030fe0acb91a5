package generators

import (
	"fmt"
	"math/rand/v2"
)

var firstNames = []string{
	"Alex", "Sam", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Avery",
	"Quinn", "Dana", "Jamie", "Robin", "Maria", "Carlos", "Wei", "Priya",
	"Omar", "Nina", "Diego", "Yuki", "Amara", "Leo", "Sofia", "Mateo",
}

var lastNames = []string{
	"Smith", "Johnson", "Garcia", "Chen", "Patel", "Kim", "Nguyen", "Lopez",
	"Martinez", "Brown", "Davis", "Wilson", "Anderson", "Taylor", "Thomas",
	"Hernandez", "Moore", "Jackson", "Lee", "Walker", "Hall", "Young",
}

var storePrefixes = []string{
	"Fresh", "Green", "Quick", "Daily", "Local", "Urban", "Metro", "City",
	"Corner", "Village", "Market", "Prime", "Super", "Express", "Smart",
	"Value", "Choice",
}

var storeSuffixes = []string{
	"Market", "Grocery", "Foods", "Mart", "Shop", "Store", "Provisions",
	"Pantry", "Basket", "Cart", "Goods", "Fare",
}

func randomPersonName(rnd *rand.Rand) string {
	first := firstNames[rnd.IntN(len(firstNames))]
	last := lastNames[rnd.IntN(len(lastNames))]
	return first + " " + last
}

func randomStoreName(rnd *rand.Rand, used map[string]bool) string {
	for range 100 {
		name := storePrefixes[rnd.IntN(len(storePrefixes))] + " " +
			storeSuffixes[rnd.IntN(len(storeSuffixes))]
		if !used[name] {
			used[name] = true
			return name
		}
	}
	return fmt.Sprintf("%s %s #%d",
		storePrefixes[rnd.IntN(len(storePrefixes))],
		storeSuffixes[rnd.IntN(len(storeSuffixes))],
		rnd.IntN(999)+1)
}
